// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compliance builds summary reports over the observer's stored
// telemetry. Reports are computed on demand from live store counts; nothing
// is cached or persisted here.
package compliance

import "time"

// Section names are part of the wire contract; dashboards key off them.
const (
	ReportDataRetention  = "data_retention_summary"
	ReportAlertsOverview = "alerts_overview"
)

// CountSource supplies the collection sizes a report is computed from.
// *store.Store satisfies this.
type CountSource interface {
	// Counts returns the number of stored log entries, metric entries,
	// and registered alert rules.
	Counts() (logs, metrics, alerts int)
}

// Section is one named block of a compliance report.
type Section struct {
	Name    string         `json:"name"`
	Details map[string]int `json:"details"`
}

// Report is the full compliance summary returned to clients.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Reports     []Section `json:"reports"`
}

// Reporter generates compliance reports from a count source.
type Reporter struct {
	source CountSource
}

// NewReporter returns a Reporter reading from source.
func NewReporter(source CountSource) *Reporter {
	return &Reporter{source: source}
}

// Generate computes a point-in-time compliance report.
//
// The report always contains exactly two sections: a data retention
// summary (total stored logs and metrics) and an alerts overview
// (registered rule count). GeneratedAt is the report creation time.
func (r *Reporter) Generate() Report {
	logs, metrics, alerts := r.source.Counts()

	return Report{
		GeneratedAt: time.Now().UTC(),
		Reports: []Section{
			{
				Name: ReportDataRetention,
				Details: map[string]int{
					"total_logs":    logs,
					"total_metrics": metrics,
				},
			},
			{
				Name: ReportAlertsOverview,
				Details: map[string]int{
					"alert_rules": alerts,
				},
			},
		},
	}
}
