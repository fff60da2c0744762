// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sink mirrors ingested metric entries to secondary time-series
// stores. Mirroring is best-effort: callers bound each write with a
// context deadline, and a failed write is logged, never surfaced to the
// ingesting client.
package sink

import (
	"context"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/AleutianAI/AleutianObserve/pkg/extensions"
	"github.com/AleutianAI/AleutianObserve/pkg/validation"
)

// defaultMeasurement is the InfluxDB measurement mirrored entries land in.
const defaultMeasurement = "observer_metrics"

// InfluxConfig holds the connection settings for the InfluxDB mirror.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxConfigFromEnv reads the standard INFLUXDB_* environment
// variables. The mirror is considered disabled when no token is set.
func InfluxConfigFromEnv() InfluxConfig {
	cfg := InfluxConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
	if cfg.URL == "" {
		cfg.URL = "http://influxdb:8086"
	}
	if cfg.Org == "" {
		cfg.Org = "aleutian"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "observability"
	}
	return cfg
}

// Enabled reports whether the configuration is complete enough to
// mirror. A missing token disables mirroring rather than failing
// startup; the mirror is an optional secondary store.
func (c InfluxConfig) Enabled() bool {
	return c.Token != ""
}

// InfluxMirror forwards ingested metric entries to InfluxDB, one point
// per metric name, tagged with the reporting source.
//
// Thread-safe: the blocking write API is safe for concurrent use.
type InfluxMirror struct {
	client      influxdb2.Client
	write       api.WriteAPIBlocking
	measurement string
}

// NewInfluxMirror connects a mirror to the configured InfluxDB. The
// connection is lazy; use Ping to verify reachability at startup.
func NewInfluxMirror(cfg InfluxConfig) *InfluxMirror {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxMirror{
		client:      client,
		write:       client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: defaultMeasurement,
	}
}

// Ping checks that InfluxDB is reachable and healthy. Callers log a
// failure and keep going; the mirror stays best-effort either way.
func (m *InfluxMirror) Ping(ctx context.Context) error {
	health, err := m.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("influxdb unhealthy: %s %s", health.Status, msg)
	}
	return nil
}

// MirrorMetric writes one point per metric name in the entry. An entry
// with no values is a no-op.
//
// The source and every metric name must be valid identifiers; an entry
// carrying a name that cannot be used as a tag value is rejected before
// anything is written. The primary store keeps the entry either way.
func (m *InfluxMirror) MirrorMetric(ctx context.Context, source string, ts time.Time, values map[string]float64) error {
	if len(values) == 0 {
		return nil
	}
	if err := validation.ValidateIdentifier(source); err != nil {
		return fmt.Errorf("source rejected: %w", err)
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	if err := validation.ValidateIdentifiers(names); err != nil {
		return fmt.Errorf("metric names rejected: %w", err)
	}
	points := buildPoints(m.measurement, source, ts, values)
	if err := m.write.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	return nil
}

// Close releases the underlying HTTP client.
func (m *InfluxMirror) Close() {
	m.client.Close()
}

// buildPoints converts a metric entry into InfluxDB points. The metric
// name goes into a tag rather than the field key so dashboards can
// group by it without unbounded field sets.
func buildPoints(measurement, source string, ts time.Time, values map[string]float64) []*write.Point {
	points := make([]*write.Point, 0, len(values))
	for name, value := range values {
		points = append(points, influxdb2.NewPoint(
			measurement,
			map[string]string{
				"source": source,
				"metric": name,
			},
			map[string]interface{}{
				"value": value,
			},
			ts,
		))
	}
	return points
}

// Compile-time interface compliance check.
var _ extensions.MetricMirror = (*InfluxMirror)(nil)
