// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianObserve/pkg/extensions"
	"github.com/AleutianAI/AleutianObserve/pkg/logging"
	"github.com/AleutianAI/AleutianObserve/services/observer"
	"github.com/AleutianAI/AleutianObserve/services/observer/config"
	"github.com/AleutianAI/AleutianObserve/services/observer/sink"
	"github.com/AleutianAI/AleutianObserve/services/observer/telemetry"
)

// shutdownTimeout bounds the graceful drain of both listeners.
const shutdownTimeout = 5 * time.Second

var (
	serveDebug bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the observer HTTP service",
		Long: `Starts the data API listener plus a separate ops listener exposing
the Prometheus scrape endpoint and a liveness probe.`,
		Run: runServe,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false,
		"Enable debug logging and Gin debug mode")
}

func runServe(cmd *cobra.Command, args []string) {
	logLevel := fileCfg.Log.Level
	if serveDebug {
		logLevel = "debug"
	}
	closeLogs, err := logging.Setup(logging.Config{
		Level:   logLevel,
		Format:  fileCfg.Log.Format,
		LogDir:  fileCfg.Log.Dir,
		Service: "observer",
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() {
		if err := closeLogs(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry is best-effort: a missing collector must never keep the
	// data plane down.
	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.ServiceVersion = observer.ServiceVersion
	shutdownTelemetry, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		slog.Warn("Telemetry initialization failed, continuing without exporters",
			"error", err)
		shutdownTelemetry = nil
	}
	defer func() {
		if shutdownTelemetry == nil {
			return
		}
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	opts, watcher := buildServiceOptions(ctx)
	if watcher != nil {
		defer watcher.Stop()
	}

	port := getEnvInt("OBSERVER_PORT", fileCfg.Port)
	if port == 0 {
		port = 12230
	}
	opsPort := fileCfg.OpsPort
	if opsPort == 0 {
		opsPort = 9090
	}

	persistDefault := true
	if fileCfg.EnablePersistence != nil {
		persistDefault = *fileCfg.EnablePersistence
	}

	mode := gin.ReleaseMode
	if serveDebug {
		mode = gin.DebugMode
	}

	svc, err := observer.New(observer.Config{
		Port:               port,
		DataDir:            getEnvString("OBSERVER_DATA_DIR", fileCfg.DataDir),
		DisablePersistence: !getEnvBool("OBSERVER_ENABLE_PERSISTENCE", persistDefault),
		FlushQueue:         getEnvInt("OBSERVER_FLUSH_QUEUE", fileCfg.FlushQueue),
		RequestsPerSecond:  fileCfg.RateLimit.RequestsPerSecond,
		Burst:              fileCfg.RateLimit.Burst,
		GinMode:            mode,
	}, &opts)
	if err != nil {
		log.Fatalf("Failed to create observer service: %v", err)
	}

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      svc.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	opsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", opsPort),
		Handler:      opsMux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting observer API server", "port", port)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("Starting ops server", "port", opsPort)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down observer")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
		if err := opsServer.Shutdown(shCtx); err != nil {
			slog.Error("Ops server shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
	}

	// Close drains the final snapshot flush before the process exits.
	svc.Close()
	slog.Info("Observer stopped")
}

// buildServiceOptions assembles the auth provider and optional metric
// mirror from the environment and config file.
//
// The returned watcher is non-nil when a key file is being hot-reloaded;
// the caller owns stopping it.
func buildServiceOptions(ctx context.Context) (extensions.ServiceOptions, *config.KeyWatcher) {
	opts := extensions.DefaultOptions()

	provider := extensions.NewTokenListProvider(
		config.ParseAPIKeys(os.Getenv("OBSERVER_API_KEYS")))

	var watcher *config.KeyWatcher
	if fileCfg.APIKeysFile != "" {
		keys, err := config.LoadKeysFile(fileCfg.APIKeysFile)
		if err != nil {
			slog.Warn("API key file unreadable at startup, starting with empty allow-list",
				"path", fileCfg.APIKeysFile, "error", err)
			keys = nil
		}
		provider.SetKeys(keys)

		w, err := config.NewKeyWatcher(fileCfg.APIKeysFile, provider.SetKeys, 0)
		if err != nil {
			slog.Warn("API key hot-reload unavailable",
				"path", fileCfg.APIKeysFile, "error", err)
		} else if err := w.Start(ctx); err != nil {
			slog.Warn("API key hot-reload unavailable",
				"path", fileCfg.APIKeysFile, "error", err)
			w.Stop()
		} else {
			watcher = w
			slog.Info("Watching API key file", "path", fileCfg.APIKeysFile)
		}
	}
	opts = opts.WithAuth(provider)

	if influxCfg := sink.InfluxConfigFromEnv(); influxCfg.Enabled() {
		mirror := sink.NewInfluxMirror(influxCfg)
		pingCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := mirror.Ping(pingCtx); err != nil {
			slog.Warn("InfluxDB mirror unreachable at startup, writes will retry per entry",
				"url", influxCfg.URL, "error", err)
		} else {
			slog.Info("Mirroring ingested metrics to InfluxDB",
				"url", influxCfg.URL, "bucket", influxCfg.Bucket)
		}
		cancel()
		opts = opts.WithMirror(mirror)
	}

	return opts, watcher
}

// opsMux serves the operational endpoints kept off the data API: the
// Prometheus scrape handler and a liveness probe.
func opsMux() *http.ServeMux {
	mux := http.NewServeMux()

	metricsHandler := telemetry.MetricsHandler()
	if metricsHandler == nil {
		// Telemetry did not initialize; serve the default registry so
		// the service counters still scrape.
		metricsHandler = promhttp.Handler()
	}
	mux.Handle("/metrics", metricsHandler)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"message":"Healthy"}`)
	})

	return mux
}
