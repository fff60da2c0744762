// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"time"
)

// MetricMirror forwards ingested metric entries to a secondary
// time-series store.
//
// Mirroring is best-effort: the ingestion path calls MirrorMetric after
// the entry is committed to the in-memory store, logs any error, and
// never fails the request. Implementations must be safe for concurrent
// use by multiple goroutines.
//
// # Open Source Behavior
//
// The default NopMetricMirror discards all entries. The bundled InfluxDB
// mirror (services/observer/sink) forwards each entry as one point per
// metric name.
type MetricMirror interface {
	// MirrorMetric forwards one ingested metric entry.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - source: the reporting service or host
	//   - ts: the entry timestamp (UTC)
	//   - values: metric name → value pairs from the entry
	//
	// Returns a non-nil error if the write failed; callers log and
	// continue.
	MirrorMetric(ctx context.Context, source string, ts time.Time, values map[string]float64) error

	// Close releases any underlying client resources. Safe to call once
	// at shutdown.
	Close()
}

// NopMetricMirror discards every entry. This is the open source default
// when no mirror backend is configured.
//
// Thread-safe: This implementation has no mutable state.
type NopMetricMirror struct{}

// MirrorMetric discards the entry and always succeeds.
func (m *NopMetricMirror) MirrorMetric(_ context.Context, _ string, _ time.Time, _ map[string]float64) error {
	return nil
}

// Close is a no-op.
func (m *NopMetricMirror) Close() {}

// Compile-time interface compliance check.
var _ MetricMirror = (*NopMetricMirror)(nil)
