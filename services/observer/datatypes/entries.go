// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the observer service.
//
// This file contains the stored entry types. Entries are immutable once
// ingested: the store appends them and never mutates them, so values can
// be shared freely between the store, the query engine, and response
// encoding. For request and response types, see requests.go and
// responses.go.
package datatypes

import (
	"time"
)

// LogEntry is one ingested log record.
//
// # Fields
//
//   - ID: server-assigned UUID, set once at the ingest boundary. Entries
//     loaded from snapshots written by older builds may carry an empty ID.
//   - Source: the service or component that emitted the log.
//   - Timestamp: event time, always UTC after ingestion.
//   - Level: free-form severity label (e.g. DEBUG, INFO, WARN, ERROR).
//     Not enum-validated; queries match it by exact string comparison.
//   - Message: the log text.
//   - Metadata: optional structured payload. The service never interprets
//     its contents; it is carried as an opaque JSON object and serialized
//     as null when absent.
//
// # Thread Safety
//
// Immutable after creation. Safe to share across goroutines.
type LogEntry struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
}

// MetricEntry is one ingested metrics payload.
//
// # Fields
//
//   - ID: server-assigned UUID, set once at the ingest boundary.
//   - Source: the service or component that emitted the metrics.
//   - Timestamp: sample time, always UTC after ingestion.
//   - Metrics: metric name → numeric value pairs. At least one entry is
//     expected but not enforced; a nil map normalizes to empty at ingest.
//
// # Thread Safety
//
// Immutable after creation. Safe to share across goroutines.
type MetricEntry struct {
	ID        string             `json:"id"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

// AlertRule is the stored record for one named alert rule.
//
// The rule name is the registry key and is not repeated inside the
// stored record; NamedAlertRule carries both for list responses.
//
// # Fields
//
//   - Expression: uninterpreted metric expression. No evaluator exists;
//     the field is stored and returned verbatim.
//   - Severity: free-form severity label (e.g. info, warning, critical).
//   - NotificationChannels: ordered channel names, never null in JSON.
//   - LastTriggered: last time the rule fired. Preserved across upserts
//     and only ever set externally; serialized as null until then.
//   - Active: whether a condition is currently firing. Preserved across
//     upserts and only ever set externally.
//
// # Upsert Invariant
//
// Replacing a rule by name keeps LastTriggered and Active from the prior
// record and replaces every other field wholesale.
type AlertRule struct {
	Expression           string     `json:"expression"`
	Severity             string     `json:"severity"`
	NotificationChannels []string   `json:"notification_channels"`
	LastTriggered        *time.Time `json:"last_triggered"`
	Active               bool       `json:"active"`
}

// NamedAlertRule is an alert rule joined with its registry name, the
// shape returned by list endpoints.
type NamedAlertRule struct {
	Name string `json:"name"`
	AlertRule
}
