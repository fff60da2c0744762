// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compliance

import (
	"encoding/json"
	"testing"
	"time"
)

type fixedCounts struct {
	logs    int
	metrics int
	alerts  int
}

func (f fixedCounts) Counts() (int, int, int) {
	return f.logs, f.metrics, f.alerts
}

func TestGenerate_SectionContents(t *testing.T) {
	r := NewReporter(fixedCounts{logs: 12, metrics: 7, alerts: 3})

	report := r.Generate()

	if len(report.Reports) != 2 {
		t.Fatalf("len(Reports) = %d, want 2", len(report.Reports))
	}

	retention := report.Reports[0]
	if retention.Name != ReportDataRetention {
		t.Errorf("Reports[0].Name = %q, want %q", retention.Name, ReportDataRetention)
	}
	if retention.Details["total_logs"] != 12 {
		t.Errorf("total_logs = %d, want 12", retention.Details["total_logs"])
	}
	if retention.Details["total_metrics"] != 7 {
		t.Errorf("total_metrics = %d, want 7", retention.Details["total_metrics"])
	}

	overview := report.Reports[1]
	if overview.Name != ReportAlertsOverview {
		t.Errorf("Reports[1].Name = %q, want %q", overview.Name, ReportAlertsOverview)
	}
	if overview.Details["alert_rules"] != 3 {
		t.Errorf("alert_rules = %d, want 3", overview.Details["alert_rules"])
	}
}

func TestGenerate_GeneratedAtIsCurrent(t *testing.T) {
	r := NewReporter(fixedCounts{})

	before := time.Now().UTC()
	report := r.Generate()
	after := time.Now().UTC()

	if report.GeneratedAt.Before(before) || report.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt = %v, want within [%v, %v]", report.GeneratedAt, before, after)
	}
}

func TestGenerate_EmptyStore(t *testing.T) {
	r := NewReporter(fixedCounts{})

	report := r.Generate()

	if got := report.Reports[0].Details["total_logs"]; got != 0 {
		t.Errorf("total_logs = %d, want 0", got)
	}
	if got := report.Reports[1].Details["alert_rules"]; got != 0 {
		t.Errorf("alert_rules = %d, want 0", got)
	}
}

func TestReport_JSONShape(t *testing.T) {
	r := NewReporter(fixedCounts{logs: 1, metrics: 2, alerts: 4})

	data, err := json.Marshal(r.Generate())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded struct {
		GeneratedAt time.Time `json:"generated_at"`
		Reports     []struct {
			Name    string         `json:"name"`
			Details map[string]int `json:"details"`
		} `json:"reports"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.GeneratedAt.IsZero() {
		t.Error("generated_at missing from JSON")
	}
	if len(decoded.Reports) != 2 {
		t.Fatalf("reports length = %d, want 2", len(decoded.Reports))
	}
	if decoded.Reports[0].Name != "data_retention_summary" {
		t.Errorf("reports[0].name = %q, want data_retention_summary", decoded.Reports[0].Name)
	}
	if decoded.Reports[1].Details["alert_rules"] != 4 {
		t.Errorf("alert_rules = %d, want 4", decoded.Reports[1].Details["alert_rules"])
	}
}
