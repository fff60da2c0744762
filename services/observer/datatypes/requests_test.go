// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"
	"time"
)

// =============================================================================
// ParseTimestamp Tests
// =============================================================================

func TestParseTimestamp_AcceptedLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc3339 utc",
			input: "2024-01-01T00:00:00Z",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 with offset",
			input: "2024-01-01T02:00:00+02:00",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 fractional",
			input: "2024-01-01T00:00:00.250Z",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 250_000_000, time.UTC),
		},
		{
			name:  "naive datetime treated as utc",
			input: "2024-01-01T12:30:45",
			want:  time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC),
		},
		{
			name:  "space separated",
			input: "2024-01-01 12:30:45",
			want:  time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2024-01-01",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestParseTimestamp_Rejected(t *testing.T) {
	inputs := []string{
		"not-a-date",
		"01/02/2024",
		"1704067200",
		"",
		"2024-13-45T00:00:00Z",
	}

	for _, input := range inputs {
		if _, err := ParseTimestamp(input); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", input)
		}
	}
}

// =============================================================================
// LogIngestRequest Tests
// =============================================================================

func TestLogIngestRequest_Validate_Success(t *testing.T) {
	req := &LogIngestRequest{
		Source:    "auth-service",
		Timestamp: "2024-01-01T00:00:00Z",
		Level:     "ERROR",
		Message:   "login failed",
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestLogIngestRequest_Validate_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  LogIngestRequest
	}{
		{"missing source", LogIngestRequest{Timestamp: "2024-01-01T00:00:00Z", Level: "INFO", Message: "x"}},
		{"missing timestamp", LogIngestRequest{Source: "svc", Level: "INFO", Message: "x"}},
		{"missing level", LogIngestRequest{Source: "svc", Timestamp: "2024-01-01T00:00:00Z", Message: "x"}},
		{"missing message", LogIngestRequest{Source: "svc", Timestamp: "2024-01-01T00:00:00Z", Level: "INFO"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLogIngestRequest_Validate_BadTimestamp(t *testing.T) {
	req := &LogIngestRequest{
		Source:    "svc",
		Timestamp: "not-a-date",
		Level:     "INFO",
		Message:   "x",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for unparsable timestamp, got nil")
	}
}

func TestLogIngestRequest_Entry_NormalizesToUTC(t *testing.T) {
	req := &LogIngestRequest{
		Source:    "svc",
		Timestamp: "2024-01-01T02:00:00+02:00",
		Level:     "INFO",
		Message:   "x",
		Metadata:  map[string]any{"region": "eu-west-1"},
	}

	entry, err := req.Entry()
	if err != nil {
		t.Fatalf("Entry() returned error: %v", err)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !entry.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, want)
	}
	if entry.Metadata["region"] != "eu-west-1" {
		t.Errorf("Metadata not carried through: %v", entry.Metadata)
	}
}

func TestLogEntry_MetadataSerializesNullWhenAbsent(t *testing.T) {
	entry := LogEntry{
		Source:    "svc",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:     "INFO",
		Message:   "x",
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, present := decoded["metadata"]; !present || v != nil {
		t.Errorf("metadata should serialize as explicit null, got %v (present=%v)", v, present)
	}
}

// =============================================================================
// MetricIngestRequest Tests
// =============================================================================

func TestMetricIngestRequest_Validate_Success(t *testing.T) {
	req := &MetricIngestRequest{
		Source:    "api-gateway",
		Timestamp: "2024-01-01T00:00:00Z",
		Metrics:   map[string]float64{"latency_ms": 12.5},
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestMetricIngestRequest_Validate_EmptyMetricsAccepted(t *testing.T) {
	// At least one metric is expected but not enforced.
	req := &MetricIngestRequest{
		Source:    "api-gateway",
		Timestamp: "2024-01-01T00:00:00Z",
		Metrics:   map[string]float64{},
	}

	if err := req.Validate(); err != nil {
		t.Errorf("empty metrics object should validate, got error: %v", err)
	}
}

func TestMetricIngestRequest_Validate_MissingMetrics(t *testing.T) {
	req := &MetricIngestRequest{
		Source:    "api-gateway",
		Timestamp: "2024-01-01T00:00:00Z",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for missing metrics key, got nil")
	}
}

func TestMetricIngestRequest_Entry_NormalizesNilMetrics(t *testing.T) {
	req := &MetricIngestRequest{
		Source:    "api-gateway",
		Timestamp: "2024-01-01T00:00:00Z",
	}

	entry, err := req.Entry()
	if err != nil {
		t.Fatalf("Entry() returned error: %v", err)
	}
	if entry.Metrics == nil {
		t.Error("nil metrics should normalize to an empty map")
	}
}

// =============================================================================
// AlertUpsertRequest Tests
// =============================================================================

func TestAlertUpsertRequest_Validate(t *testing.T) {
	valid := AlertUpsertRequest{
		Name:       "high-cpu",
		Expression: "cpu_usage > 0.9",
		Severity:   "critical",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}

	tests := []struct {
		name string
		req  AlertUpsertRequest
	}{
		{"missing name", AlertUpsertRequest{Expression: "x", Severity: "info"}},
		{"missing expression", AlertUpsertRequest{Name: "a", Severity: "info"}},
		{"missing severity", AlertUpsertRequest{Name: "a", Expression: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestAlertUpsertRequest_Rule_NormalizesChannels(t *testing.T) {
	req := AlertUpsertRequest{Name: "a", Expression: "x", Severity: "info"}

	rule := req.Rule()
	if rule.NotificationChannels == nil {
		t.Fatal("omitted channels should normalize to an empty list")
	}
	if len(rule.NotificationChannels) != 0 {
		t.Errorf("channels = %v, want empty", rule.NotificationChannels)
	}

	data, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["notification_channels"].([]any); !ok {
		t.Errorf("notification_channels should serialize as a list, got %T", decoded["notification_channels"])
	}
	if v, present := decoded["last_triggered"]; !present || v != nil {
		t.Errorf("last_triggered should serialize as explicit null, got %v (present=%v)", v, present)
	}
}

func TestNamedAlertRule_MarshalsFlat(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	named := NamedAlertRule{
		Name: "high-cpu",
		AlertRule: AlertRule{
			Expression:           "cpu_usage > 0.9",
			Severity:             "critical",
			NotificationChannels: []string{"email"},
			LastTriggered:        &now,
			Active:               true,
		},
	}

	data, err := json.Marshal(named)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"name", "expression", "severity", "notification_channels", "last_triggered", "active"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("flattened alert missing key %q: %s", key, data)
		}
	}
}

// =============================================================================
// Query Request Tests
// =============================================================================

func TestLogQueryRequest_Validate_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		req     LogQueryRequest
		wantErr bool
	}{
		{"defaults", LogQueryRequest{Page: 1, Limit: 50}, false},
		{"max limit", LogQueryRequest{Page: 1, Limit: 500}, false},
		{"zero page", LogQueryRequest{Page: 0, Limit: 50}, true},
		{"zero limit", LogQueryRequest{Page: 1, Limit: 0}, true},
		{"limit too large", LogQueryRequest{Page: 1, Limit: 501}, true},
		{"negative page", LogQueryRequest{Page: -1, Limit: 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogQueryRequest_ParseWindow(t *testing.T) {
	req := LogQueryRequest{
		From: "2024-01-01T00:00:00Z",
		To:   "2024-01-02T00:00:00Z",
		Page: 1, Limit: 50,
	}

	from, to, err := req.ParseWindow()
	if err != nil {
		t.Fatalf("ParseWindow() returned error: %v", err)
	}
	if from == nil || !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}
	if to == nil || !to.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", to)
	}
}

func TestLogQueryRequest_ParseWindow_Empty(t *testing.T) {
	req := LogQueryRequest{Page: 1, Limit: 50}

	from, to, err := req.ParseWindow()
	if err != nil {
		t.Fatalf("ParseWindow() returned error: %v", err)
	}
	if from != nil || to != nil {
		t.Errorf("empty bounds should be nil, got from=%v to=%v", from, to)
	}
}

func TestMetricQueryRequest_ParseWindow_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  MetricQueryRequest
	}{
		{"bad from", MetricQueryRequest{From: "not-a-date", Page: 1, Limit: 50}},
		{"bad to", MetricQueryRequest{To: "yesterday", Page: 1, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.req.ParseWindow(); err == nil {
				t.Error("expected error for unparsable bound, got nil")
			}
		})
	}
}
