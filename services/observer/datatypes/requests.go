// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Request types for the observer HTTP surface.
//
// Ingest bodies carry their timestamp as a string so the service, not
// the JSON decoder, owns the accepted formats. Query parameters bind via
// gin form tags; time bounds stay strings until ParseWindow so an
// unparsable bound becomes a client error before any store access.
package datatypes

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Pagination Bounds
// =============================================================================

const (
	// DefaultQueryLimit is the page size applied when the client omits limit.
	DefaultQueryLimit = 50

	// MaxQueryLimit caps the page size accepted at the transport boundary.
	// The query engine itself supports limit <= 0 as "no pagination", but
	// that mode is reserved for internal callers.
	MaxQueryLimit = 500
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// observerValidate is the validator instance for observer datatypes.
// Initialized in init() with custom validators.
var observerValidate *validator.Validate

func init() {
	observerValidate = validator.New()

	// Register custom validator for ingest timestamp strings
	_ = observerValidate.RegisterValidation("timestamp", validateTimestamp)
}

// validateTimestamp reports whether a string field parses as one of the
// accepted timestamp layouts.
func validateTimestamp(fl validator.FieldLevel) bool {
	_, err := ParseTimestamp(fl.Field().String())
	return err == nil
}

// =============================================================================
// Timestamp Parsing
// =============================================================================

// timestampLayouts are the accepted wire formats, tried in order.
// RFC 3339 covers zoned timestamps; the remaining layouts accept the
// naive datetime and date-only forms common in ISO-8601 payloads, taken
// as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp string to a UTC instant.
//
// # Description
//
// Accepts RFC 3339 with or without fractional seconds, a naive datetime
// ("2006-01-02T15:04:05", T or space separated, treated as UTC), and a
// bare date. Every stored timestamp in the service passes through this
// function exactly once at the transport boundary.
//
// # Inputs
//
//   - value: the raw timestamp string from a request body or query
//     parameter
//
// # Outputs
//
//   - time.Time: the parsed instant, normalized to UTC
//   - error: non-nil if no accepted layout matches
//
// # Examples
//
//	ts, err := datatypes.ParseTimestamp("2024-01-01T00:00:00Z")
//	ts, err := datatypes.ParseTimestamp("2024-01-01 12:30:00")
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q: use ISO-8601", value)
}

// =============================================================================
// Ingest Request Types
// =============================================================================

// LogIngestRequest is the body of POST /logs/ingest.
//
// # Validation
//
// Uses go-playground/validator:
//   - Source, Level, Message: required, non-empty
//   - Timestamp: required, must parse via ParseTimestamp
//   - Metadata: optional, carried opaque
type LogIngestRequest struct {
	Source    string         `json:"source" validate:"required"`
	Timestamp string         `json:"timestamp" validate:"required,timestamp"`
	Level     string         `json:"level" validate:"required"`
	Message   string         `json:"message" validate:"required"`
	Metadata  map[string]any `json:"metadata"`
}

// Validate validates the LogIngestRequest fields after JSON binding.
func (r *LogIngestRequest) Validate() error {
	return observerValidate.Struct(r)
}

// Entry converts the request to its stored form, normalizing the
// timestamp to a UTC instant. Call only after Validate.
func (r *LogIngestRequest) Entry() (LogEntry, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return LogEntry{}, err
	}
	return LogEntry{
		Source:    r.Source,
		Timestamp: ts,
		Level:     r.Level,
		Message:   r.Message,
		Metadata:  r.Metadata,
	}, nil
}

// MetricIngestRequest is the body of POST /metrics/ingest.
//
// # Validation
//
// Uses go-playground/validator:
//   - Source: required, non-empty
//   - Timestamp: required, must parse via ParseTimestamp
//   - Metrics: required key (an empty object is accepted; at least one
//     entry is expected but not enforced)
type MetricIngestRequest struct {
	Source    string             `json:"source" validate:"required"`
	Timestamp string             `json:"timestamp" validate:"required,timestamp"`
	Metrics   map[string]float64 `json:"metrics" validate:"required"`
}

// Validate validates the MetricIngestRequest fields after JSON binding.
func (r *MetricIngestRequest) Validate() error {
	return observerValidate.Struct(r)
}

// Entry converts the request to its stored form. A nil metrics map
// normalizes to empty. Call only after Validate.
func (r *MetricIngestRequest) Entry() (MetricEntry, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return MetricEntry{}, err
	}
	metrics := r.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	return MetricEntry{
		Source:    r.Source,
		Timestamp: ts,
		Metrics:   metrics,
	}, nil
}

// =============================================================================
// Alert Request Types
// =============================================================================

// AlertUpsertRequest is the body of POST /alerts.
//
// Upserting replaces Expression, Severity, and NotificationChannels on
// the stored rule; LastTriggered and Active are preserved by the
// registry, never taken from the request.
type AlertUpsertRequest struct {
	Name                 string   `json:"name" validate:"required"`
	Expression           string   `json:"expression" validate:"required"`
	Severity             string   `json:"severity" validate:"required"`
	NotificationChannels []string `json:"notification_channels"`
}

// Validate validates the AlertUpsertRequest fields after JSON binding.
func (r *AlertUpsertRequest) Validate() error {
	return observerValidate.Struct(r)
}

// Rule converts the request to the replacement rule fields. Omitted
// channels normalize to an empty, non-null list.
func (r *AlertUpsertRequest) Rule() AlertRule {
	channels := r.NotificationChannels
	if channels == nil {
		channels = []string{}
	}
	return AlertRule{
		Expression:           r.Expression,
		Severity:             r.Severity,
		NotificationChannels: channels,
	}
}

// =============================================================================
// Query Request Types
// =============================================================================

// LogQueryRequest binds the query parameters of GET /logs/query.
//
// Source and Level filter by exact match; empty values pass everything.
// From and To bound the window inclusively and stay strings until
// ParseWindow.
type LogQueryRequest struct {
	Source string `form:"source"`
	Level  string `form:"level"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   int    `form:"page,default=1" validate:"gte=1"`
	Limit  int    `form:"limit,default=50" validate:"gte=1,lte=500"`
}

// Validate validates the bound pagination parameters.
func (r *LogQueryRequest) Validate() error {
	return observerValidate.Struct(r)
}

// ParseWindow parses the optional From/To bounds. A nil bound means
// unbounded on that side.
func (r *LogQueryRequest) ParseWindow() (from, to *time.Time, err error) {
	return parseWindow(r.From, r.To)
}

// MetricQueryRequest binds the query parameters of GET /metrics/query.
//
// Metric filters to entries containing that metric key.
type MetricQueryRequest struct {
	Source string `form:"source"`
	Metric string `form:"metric"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   int    `form:"page,default=1" validate:"gte=1"`
	Limit  int    `form:"limit,default=50" validate:"gte=1,lte=500"`
}

// Validate validates the bound pagination parameters.
func (r *MetricQueryRequest) Validate() error {
	return observerValidate.Struct(r)
}

// ParseWindow parses the optional From/To bounds. A nil bound means
// unbounded on that side.
func (r *MetricQueryRequest) ParseWindow() (from, to *time.Time, err error) {
	return parseWindow(r.From, r.To)
}

// parseWindow parses both window bounds, failing fast on the first
// malformed one.
func parseWindow(fromRaw, toRaw string) (from, to *time.Time, err error) {
	if fromRaw != "" {
		ts, err := ParseTimestamp(fromRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid 'from': %w", err)
		}
		from = &ts
	}
	if toRaw != "" {
		ts, err := ParseTimestamp(toRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid 'to': %w", err)
		}
		to = &ts
	}
	return from, to, nil
}
