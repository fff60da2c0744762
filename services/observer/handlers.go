// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observer

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianObserve/pkg/extensions"
	"github.com/AleutianAI/AleutianObserve/services/observer/compliance"
	"github.com/AleutianAI/AleutianObserve/services/observer/datatypes"
	"github.com/AleutianAI/AleutianObserve/services/observer/middleware"
	"github.com/AleutianAI/AleutianObserve/services/observer/observability"
	"github.com/AleutianAI/AleutianObserve/services/observer/store"
	"github.com/AleutianAI/AleutianObserve/services/observer/telemetry"
)

// handlerTracer names the tracer covering all observer HTTP handlers.
const handlerTracer = "aleutian.observer.handlers"

// mirrorTimeout bounds the inline mirror write on the metric ingest path
// so a slow secondary store cannot stall ingestion indefinitely.
const mirrorTimeout = 2 * time.Second

// Handlers contains the HTTP handlers for the observer API.
type Handlers struct {
	store    *store.Store
	metrics  *observability.ServiceMetrics
	reporter *compliance.Reporter
	mirror   extensions.MetricMirror
}

// NewHandlers creates handlers over the given store. metrics must be
// non-nil; tests pass an instance built against a private registry.
func NewHandlers(st *store.Store, metrics *observability.ServiceMetrics) *Handlers {
	return &Handlers{
		store:    st,
		metrics:  metrics,
		reporter: compliance.NewReporter(st),
		mirror:   &extensions.NopMetricMirror{},
	}
}

// WithMirror sets the metric mirror for the ingest path. A nil mirror
// keeps the discard default.
func (h *Handlers) WithMirror(m extensions.MetricMirror) *Handlers {
	if m != nil {
		h.mirror = m
	}
	return h
}

// HandleHealth handles GET / and GET /healthz.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Message: "Healthy"})
}

// HandleLogIngest handles POST /logs/ingest.
//
// Description:
//
//	Validates the payload, normalizes the timestamp to UTC, assigns the
//	entry ID, and appends the entry to the store. Snapshot persistence
//	happens asynchronously and never affects the response.
//
// Request Body:
//
//	datatypes.LogIngestRequest
//
// Response:
//
//	200 OK: datatypes.IngestResponse
//	400 Bad Request: ErrorResponse (INVALID_REQUEST)
func (h *Handlers) HandleLogIngest(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleLogIngest")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleLogIngest")

	var req datatypes.LogIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointLogIngest, start,
			CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Log ingest validation failed", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointLogIngest, start,
			CodeInvalidRequest, "Log ingest validation failed", err)
		return
	}

	entry, err := req.Entry()
	if err != nil {
		logger.Warn("Invalid log timestamp", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointLogIngest, start,
			CodeInvalidRequest, "Invalid log timestamp", err)
		return
	}
	entry.ID = uuid.NewString()

	h.store.AppendLog(entry)

	h.metrics.RecordIngested(observability.KindLogs, 1)
	h.publishStoreSizes()
	h.observe(observability.EndpointLogIngest, start, true)
	telemetry.SetSpanAttributes(span,
		attribute.String("log.source", entry.Source),
		attribute.String("log.level", entry.Level))
	telemetry.SetSpanOK(span)

	logger.Info("Log entry ingested", "source", entry.Source, "level", entry.Level)
	c.JSON(http.StatusOK, datatypes.NewIngestResponse())
}

// HandleMetricIngest handles POST /metrics/ingest.
//
// Description:
//
//	Validates the payload, normalizes the timestamp to UTC, assigns the
//	entry ID, and appends the entry to the store. After the entry is
//	committed it is forwarded to the configured metric mirror; a mirror
//	failure is logged and never fails the request.
//
// Request Body:
//
//	datatypes.MetricIngestRequest
//
// Response:
//
//	200 OK: datatypes.IngestResponse
//	400 Bad Request: ErrorResponse (INVALID_REQUEST)
func (h *Handlers) HandleMetricIngest(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleMetricIngest")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleMetricIngest")

	var req datatypes.MetricIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointMetricIngest, start,
			CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Metric ingest validation failed", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointMetricIngest, start,
			CodeInvalidRequest, "Metric ingest validation failed", err)
		return
	}

	entry, err := req.Entry()
	if err != nil {
		logger.Warn("Invalid metric timestamp", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointMetricIngest, start,
			CodeInvalidRequest, "Invalid metric timestamp", err)
		return
	}
	entry.ID = uuid.NewString()

	h.store.AppendMetric(entry)
	h.mirrorEntry(ctx, logger, entry)

	h.metrics.RecordIngested(observability.KindMetrics, 1)
	h.publishStoreSizes()
	h.observe(observability.EndpointMetricIngest, start, true)
	telemetry.SetSpanAttributes(span,
		attribute.String("metric.source", entry.Source),
		attribute.Int("metric.series", len(entry.Metrics)))
	telemetry.SetSpanOK(span)

	logger.Info("Metric entry ingested", "source", entry.Source, "series", len(entry.Metrics))
	c.JSON(http.StatusOK, datatypes.NewIngestResponse())
}

// HandleLogQuery handles GET /logs/query.
//
// Description:
//
//	Filters the stored log entries by source, level, and inclusive time
//	window, sorted most recent first, and returns one page plus the
//	pre-pagination total. An unparsable time bound is rejected before
//	the store is consulted.
//
// Query Parameters:
//
//	source: exact source match (optional)
//	level: exact level match (optional)
//	from, to: inclusive ISO-8601 window bounds (optional)
//	page: 1-indexed page (default 1)
//	limit: page size, 1..500 (default 50)
//
// Response:
//
//	200 OK: datatypes.LogQueryResponse
//	400 Bad Request: ErrorResponse (INVALID_QUERY)
func (h *Handlers) HandleLogQuery(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleLogQuery")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleLogQuery")

	var req datatypes.LogQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid query parameters", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointLogQuery, start,
			CodeInvalidQuery, "Invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Query parameters out of bounds", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointLogQuery, start,
			CodeInvalidQuery, "Query parameters out of bounds", err)
		return
	}

	from, to, err := req.ParseWindow()
	if err != nil {
		logger.Warn("Invalid time window", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointLogQuery, start,
			CodeInvalidQuery, "Invalid time window", err)
		return
	}

	items, total := h.store.QueryLogs(store.LogFilter{
		Source: req.Source,
		Level:  req.Level,
		From:   from,
		To:     to,
	}, req.Page, req.Limit)

	h.observe(observability.EndpointLogQuery, start, true)
	telemetry.SetSpanAttributes(span,
		attribute.Int("query.page", req.Page),
		attribute.Int("query.limit", req.Limit),
		attribute.Int("query.total", total))
	telemetry.SetSpanOK(span)

	logger.Info("Log query served", "returned", len(items), "total", total)
	c.JSON(http.StatusOK, datatypes.LogQueryResponse{
		Items: items,
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

// HandleMetricQuery handles GET /metrics/query.
//
// Description:
//
//	Filters the stored metric entries by source, carried metric name,
//	and inclusive time window, sorted most recent first. Semantics
//	mirror HandleLogQuery.
//
// Query Parameters:
//
//	source: exact source match (optional)
//	metric: entries carrying this series name (optional)
//	from, to: inclusive ISO-8601 window bounds (optional)
//	page: 1-indexed page (default 1)
//	limit: page size, 1..500 (default 50)
//
// Response:
//
//	200 OK: datatypes.MetricQueryResponse
//	400 Bad Request: ErrorResponse (INVALID_QUERY)
func (h *Handlers) HandleMetricQuery(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleMetricQuery")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleMetricQuery")

	var req datatypes.MetricQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid query parameters", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointMetricQuery, start,
			CodeInvalidQuery, "Invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Query parameters out of bounds", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointMetricQuery, start,
			CodeInvalidQuery, "Query parameters out of bounds", err)
		return
	}

	from, to, err := req.ParseWindow()
	if err != nil {
		logger.Warn("Invalid time window", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointMetricQuery, start,
			CodeInvalidQuery, "Invalid time window", err)
		return
	}

	items, total := h.store.QueryMetrics(store.MetricFilter{
		Source: req.Source,
		Metric: req.Metric,
		From:   from,
		To:     to,
	}, req.Page, req.Limit)

	h.observe(observability.EndpointMetricQuery, start, true)
	telemetry.SetSpanAttributes(span,
		attribute.Int("query.page", req.Page),
		attribute.Int("query.limit", req.Limit),
		attribute.Int("query.total", total))
	telemetry.SetSpanOK(span)

	logger.Info("Metric query served", "returned", len(items), "total", total)
	c.JSON(http.StatusOK, datatypes.MetricQueryResponse{
		Items: items,
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

// HandleAlertList handles GET /alerts.
//
// Response:
//
//	200 OK: datatypes.AlertListResponse (order unspecified)
func (h *Handlers) HandleAlertList(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleAlertList")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleAlertList")

	alerts := h.store.ListAlerts()

	h.observe(observability.EndpointAlertList, start, true)
	telemetry.SetSpanAttributes(span, attribute.Int("alerts.count", len(alerts)))
	telemetry.SetSpanOK(span)

	logger.Debug("Alert rules listed", "count", len(alerts))
	c.JSON(http.StatusOK, datatypes.AlertListResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}

// HandleAlertUpsert handles POST /alerts.
//
// Description:
//
//	Creates or replaces the alert rule registered under the request
//	name. Replacement swaps expression, severity, and channels
//	wholesale; last_triggered and active carry over from the previous
//	registration.
//
// Request Body:
//
//	datatypes.AlertUpsertRequest
//
// Response:
//
//	200 OK: datatypes.AlertUpsertResponse with the stored rule
//	400 Bad Request: ErrorResponse (INVALID_REQUEST)
func (h *Handlers) HandleAlertUpsert(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleAlertUpsert")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleAlertUpsert")

	var req datatypes.AlertUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointAlertUpsert, start,
			CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Alert upsert validation failed", "error", err)
		h.rejectBadRequest(c, span, observability.EndpointAlertUpsert, start,
			CodeInvalidRequest, "Alert upsert validation failed", err)
		return
	}

	stored := h.store.UpsertAlert(req.Name, req.Rule())

	h.publishStoreSizes()
	h.observe(observability.EndpointAlertUpsert, start, true)
	telemetry.SetSpanAttributes(span,
		attribute.String("alert.name", req.Name),
		attribute.String("alert.severity", req.Severity))
	telemetry.SetSpanOK(span)

	logger.Info("Alert rule upserted", "name", req.Name, "severity", req.Severity)
	c.JSON(http.StatusOK, datatypes.AlertUpsertResponse{
		Status: "ok",
		Name:   req.Name,
		Rule:   stored,
	})
}

// HandleComplianceReports handles GET /compliance/reports.
//
// Response:
//
//	200 OK: compliance.Report with the data retention and alerts
//	overview sections
func (h *Handlers) HandleComplianceReports(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	ctx, span := telemetry.StartSpan(c.Request.Context(), handlerTracer, "HandleComplianceReports")
	defer span.End()
	logger := requestLogger(c, ctx, requestID, "HandleComplianceReports")

	report := h.reporter.Generate()

	h.observe(observability.EndpointCompliance, start, true)
	telemetry.SetSpanAttributes(span, attribute.Int("report.sections", len(report.Reports)))
	telemetry.SetSpanOK(span)

	logger.Debug("Compliance report generated", "sections", len(report.Reports))
	c.JSON(http.StatusOK, report)
}

// =============================================================================
// Helpers
// =============================================================================

// getOrCreateRequestID gets or creates a request ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// requestLogger builds the per-request logger: trace-correlated, tagged
// with the request ID and handler name, and attributed to the
// authenticated client when the auth middleware identified one.
func requestLogger(c *gin.Context, ctx context.Context, requestID, handler string) *slog.Logger {
	logger := telemetry.LoggerWithTrace(ctx, slog.Default()).With(
		"request_id", requestID, "handler", handler)
	if info := middleware.GetAuthInfo(c); info != nil {
		logger = telemetry.LoggerWithClient(logger, info.ClientID)
	}
	return logger
}

// rejectBadRequest aborts the request with a 400 ErrorResponse, recording
// the failure on the span and the endpoint metrics. The caller logs the
// specific failure before calling.
func (h *Handlers) rejectBadRequest(c *gin.Context, span trace.Span,
	endpoint observability.Endpoint, start time.Time, code, message string, err error) {
	telemetry.RecordError(span, err)
	h.metrics.RecordError(endpoint, metricErrorCode(code))
	h.observe(endpoint, start, false)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: err.Error(),
	})
}

// observe records the outcome counter and latency for one request.
func (h *Handlers) observe(endpoint observability.Endpoint, start time.Time, success bool) {
	h.metrics.RecordRequest(endpoint, success)
	h.metrics.RecordDuration(endpoint, time.Since(start).Seconds(), success)
}

// publishStoreSizes refreshes the stored-entries gauges after a mutation.
func (h *Handlers) publishStoreSizes() {
	logs, metrics, alerts := h.store.Counts()
	h.metrics.SetStoredEntries(logs, metrics, alerts)
}

// mirrorEntry forwards one committed metric entry to the configured
// mirror, bounded by mirrorTimeout. Failures are logged and never affect
// the client response.
func (h *Handlers) mirrorEntry(ctx context.Context, logger *slog.Logger, entry datatypes.MetricEntry) {
	mirrorCtx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := h.mirror.MirrorMetric(mirrorCtx, entry.Source, entry.Timestamp, entry.Metrics); err != nil {
		logger.Warn("Metric mirror write failed", "source", entry.Source, "error", err)
	}
}

// metricErrorCode maps a transport error code to its metrics label.
func metricErrorCode(code string) observability.ErrorCode {
	switch code {
	case CodeInvalidQuery:
		return observability.ErrorCodeInvalidQuery
	default:
		return observability.ErrorCodeValidation
	}
}
