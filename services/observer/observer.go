// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observer provides the observability HTTP service: structured
// log and metric ingestion, filtered queries over both, a named alert
// rule registry, and compliance report generation.
//
// The service keeps everything in memory behind services/observer/store
// and persists best-effort JSON snapshots so state survives restarts.
// Telemetry for the service itself (traces, Prometheus metrics) is
// initialized by the caller via services/observer/telemetry; the service
// only attaches the otelgin middleware and records spans and counters.
package observer

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianObserve/pkg/extensions"
	"github.com/AleutianAI/AleutianObserve/services/observer/middleware"
	"github.com/AleutianAI/AleutianObserve/services/observer/observability"
	"github.com/AleutianAI/AleutianObserve/services/observer/store"
)

// =============================================================================
// Service Interface
// =============================================================================

// Service defines the observer service interface.
//
// # Description
//
// Service abstracts the observer server lifecycle for testing and
// embedding. Production code calls New() then Run(); tests construct
// the service and drive Router() directly with httptest.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
//
// # Assumptions
//
//   - Service is fully initialized before Run() is called
//   - Run() is called at most once per Service instance
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	// Close runs automatically when Run returns.
	Run() error

	// Router returns the underlying Gin engine for testing, or for
	// callers that manage their own http.Server (the serve command
	// does this to pair the API listener with the ops listener).
	Router() *gin.Engine

	// Close flushes the store and releases mirror resources. Callers
	// that serve Router() themselves must call Close on shutdown so
	// the final snapshot is not lost; after Run it is redundant but
	// harmless.
	Close()
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds observer service configuration options.
//
// # Description
//
// Config centralizes the core knobs for the observer service. Values
// can be populated from environment variables, a config file, or
// programmatically for testing. Pluggable behavior (credential
// validation, metric mirroring) arrives via extensions.ServiceOptions
// instead.
//
// # Required Fields
//
// None - all fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Ephemeral store for tests
//	cfg := Config{DisablePersistence: true}
//
//	// Full configuration
//	cfg := Config{
//	    Port:              12230,
//	    DataDir:           "/var/lib/observer",
//	    FlushQueue:        4,
//	    RequestsPerSecond: 100,
//	    Burst:             200,
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12230
	Port int

	// DataDir is the directory holding the JSON snapshots.
	// Default: "data"
	DataDir string

	// DisablePersistence turns off snapshot loads and writes, making
	// the store purely in-memory. Default: false (persistence on)
	DisablePersistence bool

	// FlushQueue bounds the snapshot flusher's pending queue. Values
	// below 1 coalesce all pending work into a single flush. Default: 1
	FlushQueue int

	// RequestsPerSecond caps each client's sustained request rate on
	// the data endpoints. Zero disables rate limiting. Default: 0
	RequestsPerSecond float64

	// Burst is the rate limiter bucket depth. Values below 1 are
	// raised to 1 when limiting is enabled.
	Burst int

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service coordinates:
//   - HTTP routing via Gin with otelgin tracing middleware
//   - The in-memory event store and its snapshot persistence
//   - Bearer-token authentication and per-client rate limiting
//   - Prometheus metrics for the service's own health
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config   Config
	opts     extensions.ServiceOptions
	router   *gin.Engine
	store    *store.Store
	handlers *Handlers
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new observer Service with the given configuration.
//
// # Description
//
// New initializes all observer components:
//  1. Applies default configuration for missing values
//  2. Initializes Prometheus metrics (first call only)
//  3. Opens the snapshot store and bootstraps the event store from it
//  4. Starts the background snapshot flusher
//  5. Sets up HTTP routes with extension options
//
// If opts is nil, extensions.DefaultOptions() is used: open-mode
// authentication and a discarding metric mirror.
//
// Corrupt or missing snapshots never fail construction; the affected
// collection starts empty and the condition is logged.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - opts: Extension options. May be nil.
//
// # Outputs
//
//   - Service: Ready-to-run observer service
//   - error: Non-nil if the data directory cannot be created
//
// # Examples
//
//	// Open mode (any bearer token accepted)
//	svc, err := observer.New(observer.Config{}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
//	// Keyed deployment with an InfluxDB mirror
//	opts := extensions.DefaultOptions().
//	    WithAuth(extensions.NewTokenListProvider(keys)).
//	    WithMirror(mirror)
//	svc, err := observer.New(cfg, &opts)
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	// Apply extension options (use defaults if nil)
	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}
	if s.opts.AuthProvider == nil {
		s.opts.AuthProvider = extensions.NewTokenListProvider(nil)
	}

	// Initialize Prometheus metrics once per process; later services
	// in the same process share the registered collectors.
	if observability.DefaultMetrics == nil {
		observability.InitMetrics()
	}

	snapshots, err := store.NewSnapshotStore(s.config.DataDir, !s.config.DisablePersistence)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	s.store = store.NewStoreWithOptions(snapshots, store.Options{
		FlushQueue: s.config.FlushQueue,
	})
	s.store.Bootstrap()
	s.store.Start()

	logs, metrics, alerts := s.store.Counts()
	observability.DefaultMetrics.SetStoredEntries(logs, metrics, alerts)
	slog.Info("Event store ready",
		"data_dir", s.config.DataDir,
		"persistence", !s.config.DisablePersistence,
		"logs", logs,
		"metrics", metrics,
		"alerts", alerts)

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
//
// # Outputs
//
//   - error: Non-nil if the server fails to start or encounters a
//     fatal error
//
// # Limitations
//
//   - Blocks until the server stops
//   - Close runs automatically on return
func (s *service) Run() error {
	defer s.Close()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting observer server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Close stops the background flusher, persisting any state mutated
// since the last flush, and releases the metric mirror. Safe to call
// when Run was never called.
func (s *service) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.opts.MetricMirror != nil {
		s.opts.MetricMirror.Close()
	}
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12230
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.FlushQueue < 1 {
		cfg.FlushQueue = 1
	}
	return cfg
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("observer-service"))

	s.handlers = NewHandlers(s.store, observability.DefaultMetrics).
		WithMirror(s.opts.MetricMirror)

	RegisterRoutes(s.router, s.handlers, middleware.RateLimitConfig{
		RequestsPerSecond: s.config.RequestsPerSecond,
		Burst:             s.config.Burst,
	}, s.opts)
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
