// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"log/slog"
)

// LoggerWithTrace returns a logger annotated with the trace_id and
// span_id of the active span, for correlating log lines with traces.
//
// Description:
//
//	When the context carries a valid span, the returned logger includes
//	trace_id and span_id fields on every record. When there is no active
//	span the logger is returned unchanged, so this is safe to call on
//	every request path.
//
// Inputs:
//
//	ctx - Context potentially containing a span. May be nil.
//	logger - Base logger. A nil logger falls back to slog.Default().
//
// Outputs:
//
//	*slog.Logger - Logger with trace correlation fields when available.
//
// Thread Safety: Safe for concurrent use.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}

	traceID := TraceID(ctx)
	if traceID == "" {
		return logger
	}

	return logger.With(
		slog.String("trace_id", traceID),
		slog.String("span_id", SpanID(ctx)),
	)
}

// LoggerWithClient returns a logger annotated with the authenticated
// client identity, so ingest and query lines can be attributed.
//
// Thread Safety: Safe for concurrent use.
func LoggerWithClient(logger *slog.Logger, clientID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("client_id", clientID))
}
