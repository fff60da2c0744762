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
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianObserve/pkg/extensions"
	"github.com/AleutianAI/AleutianObserve/services/observer/middleware"
)

// RegisterRoutes registers all observer routes with the router.
//
// Description:
//
//	Health endpoints are registered on the bare engine, outside any
//	authentication. Every data endpoint sits behind the bearer-token
//	auth middleware and the per-client rate limiter. Paths carry no
//	version prefix; the shapes they serve are the compatibility
//	contract.
//
// Inputs:
//
//	router - Gin engine (otelgin middleware should already be applied)
//	handlers - The handlers instance
//	limits - Rate limit settings; zero RequestsPerSecond disables limiting
//	opts - Extension options; opts.AuthProvider must be non-nil
//
// Health Endpoints (no auth):
//
//	GET  /        - Liveness check
//	GET  /healthz - Liveness check (alias)
//
// Data Endpoints (bearer token required):
//
//	POST /logs/ingest        - Append one log entry
//	GET  /logs/query         - Filtered, paginated log query
//	POST /metrics/ingest     - Append one metric entry
//	GET  /metrics/query      - Filtered, paginated metric query
//	GET  /alerts             - List registered alert rules
//	POST /alerts             - Create or replace an alert rule by name
//	GET  /compliance/reports - Data retention and alerts overview
//
// Example:
//
//	st := store.NewStore(nil)
//	h := observer.NewHandlers(st, observability.InitMetrics())
//	observer.RegisterRoutes(router, h, middleware.RateLimitConfig{}, extensions.DefaultOptions())
func RegisterRoutes(router *gin.Engine, handlers *Handlers,
	limits middleware.RateLimitConfig, opts extensions.ServiceOptions) {

	router.GET("/", handlers.HandleHealth)
	router.GET("/healthz", handlers.HandleHealth)

	api := router.Group("/")
	api.Use(middleware.AuthMiddleware(opts.AuthProvider))
	api.Use(middleware.RateLimitMiddleware(limits))
	{
		api.POST("/logs/ingest", handlers.HandleLogIngest)
		api.GET("/logs/query", handlers.HandleLogQuery)

		api.POST("/metrics/ingest", handlers.HandleMetricIngest)
		api.GET("/metrics/query", handlers.HandleMetricQuery)

		api.GET("/alerts", handlers.HandleAlertList)
		api.POST("/alerts", handlers.HandleAlertUpsert)

		api.GET("/compliance/reports", handlers.HandleComplianceReports)
	}
}
