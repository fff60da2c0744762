// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the observer
// service itself.
//
// # Description
//
// The observer stores other systems' telemetry; this package covers the
// observer's own operational health:
//   - Request counters and latency histograms by endpoint and status
//   - Ingested entry counters by kind
//   - Current collection sizes
//   - Error counters by endpoint and error type
//
// # Integration
//
// Metrics are exposed on the operations port via the Prometheus
// exporter in the telemetry package. Scrape with Prometheus and graph
// with Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for observer service metrics
const observerSubsystem = "observer"

// ServiceMetrics holds all Prometheus metrics for the observer service.
//
// # Fields
//
//   - RequestsTotal: Counter of API requests by endpoint and status
//   - RequestDurationSeconds: Histogram of request handling latency
//   - IngestedEntriesTotal: Counter of accepted entries by kind
//   - ErrorsTotal: Counter of request errors by endpoint and error type
//   - StoredEntries: Gauge of current collection sizes
//
// # Thread Safety
//
// All operations are thread-safe.
type ServiceMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (log_ingest, log_query, ...), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures request handling latency.
	// Labels: endpoint, status (success, error)
	RequestDurationSeconds *prometheus.HistogramVec

	// IngestedEntriesTotal counts entries accepted into the store.
	// Labels: kind (logs, metrics)
	IngestedEntriesTotal *prometheus.CounterVec

	// ErrorsTotal counts request errors by endpoint and error type.
	// Labels: endpoint, error_code (validation, invalid_query, ...)
	ErrorsTotal *prometheus.CounterVec

	// StoredEntries tracks the current size of each collection.
	// Labels: collection (logs, metrics, alerts)
	StoredEntries *prometheus.GaugeVec
}

// DefaultMetrics is the singleton instance of ServiceMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *ServiceMetrics

// InitMetrics initializes the default metrics instance against the
// default Prometheus registry.
//
// Call once at startup; a second call panics on duplicate registration.
func InitMetrics() *ServiceMetrics {
	DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewMetrics creates and registers the full metric set against reg.
// Tests pass a private registry so test binaries can build metrics as
// often as they like.
func NewMetrics(reg prometheus.Registerer) *ServiceMetrics {
	factory := promauto.With(reg)

	return &ServiceMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: observerSubsystem,
				Name:      "requests_total",
				Help:      "Total number of API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: observerSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Request handling latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint", "status"},
		),

		IngestedEntriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: observerSubsystem,
				Name:      "ingested_entries_total",
				Help:      "Total entries accepted into the store by kind",
			},
			[]string{"kind"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: observerSubsystem,
				Name:      "errors_total",
				Help:      "Total request errors by endpoint and error type",
			},
			[]string{"endpoint", "error_code"},
		),

		StoredEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: observerSubsystem,
				Name:      "stored_entries",
				Help:      "Current number of entries held per collection",
			},
			[]string{"collection"},
		),
	}
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates an ingest body failed validation.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeInvalidQuery indicates malformed query parameters.
	ErrorCodeInvalidQuery ErrorCode = "invalid_query"

	// ErrorCodeUnauthorized indicates a rejected credential.
	ErrorCodeUnauthorized ErrorCode = "unauthorized"

	// ErrorCodeInternal indicates an internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents an API endpoint for metrics labeling.
type Endpoint string

const (
	EndpointHealth       Endpoint = "health"
	EndpointLogIngest    Endpoint = "log_ingest"
	EndpointMetricIngest Endpoint = "metric_ingest"
	EndpointLogQuery     Endpoint = "log_query"
	EndpointMetricQuery  Endpoint = "metric_query"
	EndpointAlertList    Endpoint = "alert_list"
	EndpointAlertUpsert  Endpoint = "alert_upsert"
	EndpointCompliance   Endpoint = "compliance_reports"
)

// =============================================================================
// Entry Kinds
// =============================================================================

// EntryKind labels which collection an ingested entry landed in.
type EntryKind string

const (
	KindLogs    EntryKind = "logs"
	KindMetrics EntryKind = "metrics"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed API request.
func (m *ServiceMetrics) RecordRequest(endpoint Endpoint, success bool) {
	m.RequestsTotal.WithLabelValues(string(endpoint), statusLabel(success)).Inc()
}

// RecordDuration records request handling latency.
func (m *ServiceMetrics) RecordDuration(endpoint Endpoint, seconds float64, success bool) {
	m.RequestDurationSeconds.WithLabelValues(string(endpoint), statusLabel(success)).Observe(seconds)
}

// RecordError records a request error by category.
func (m *ServiceMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordIngested records entries accepted into the store.
func (m *ServiceMetrics) RecordIngested(kind EntryKind, count int) {
	m.IngestedEntriesTotal.WithLabelValues(string(kind)).Add(float64(count))
}

// SetStoredEntries publishes the current collection sizes.
func (m *ServiceMetrics) SetStoredEntries(logs, metrics, alerts int) {
	m.StoredEntries.WithLabelValues("logs").Set(float64(logs))
	m.StoredEntries.WithLabelValues("metrics").Set(float64(metrics))
	m.StoredEntries.WithLabelValues("alerts").Set(float64(alerts))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
