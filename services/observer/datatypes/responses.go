// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Response envelopes for the observer HTTP surface. These shapes are
// load-bearing for client compatibility; change them only with a
// versioned endpoint.
package datatypes

// IngestResponse acknowledges an accepted ingest request.
type IngestResponse struct {
	Status   string `json:"status"`
	Ingested int    `json:"ingested"`
}

// NewIngestResponse returns the standard single-entry acknowledgement.
func NewIngestResponse() IngestResponse {
	return IngestResponse{Status: "ok", Ingested: 1}
}

// LogQueryResponse is the paginated envelope of GET /logs/query.
//
// Total counts every entry matching the filter before pagination, so
// clients can compute page counts; Items holds only the requested page.
type LogQueryResponse struct {
	Items []LogEntry `json:"items"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int        `json:"total"`
}

// MetricQueryResponse is the paginated envelope of GET /metrics/query.
type MetricQueryResponse struct {
	Items []MetricEntry `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

// AlertListResponse is the envelope of GET /alerts.
type AlertListResponse struct {
	Alerts []NamedAlertRule `json:"alerts"`
	Count  int              `json:"count"`
}

// AlertUpsertResponse acknowledges POST /alerts with the stored rule,
// including any preserved trigger status.
type AlertUpsertResponse struct {
	Status string    `json:"status"`
	Name   string    `json:"name"`
	Rule   AlertRule `json:"rule"`
}
