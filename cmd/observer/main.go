// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command observer starts the AleutianObserve telemetry service.
//
// The observer ingests log and metric entries over HTTP, serves filtered
// queries and alert definitions, and persists its collections as JSON
// snapshots. A second listener carries the operational endpoints
// (Prometheus scrape, liveness probe), keeping them off the data API
// where /metrics/query already owns the metrics namespace.
//
// Configuration resolves in three layers: built-in defaults, then the
// optional YAML config file, then environment variables.
//
// # Environment Variables
//
//   - OBSERVER_PORT: data API port (default: 12230)
//   - OBSERVER_API_KEYS: credential allow-list as "name1:key1,name2:key2"
//     (default: empty, open mode)
//   - OBSERVER_DATA_DIR: snapshot directory (default: data)
//   - OBSERVER_ENABLE_PERSISTENCE: snapshot loads and writes, accepts
//     1|true|yes (default: true)
//   - OBSERVER_FLUSH_QUEUE: snapshot flusher queue depth (default: 1)
//   - INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, INFLUXDB_BUCKET: mirror
//     ingested metrics to InfluxDB; disabled while the token is unset
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: localhost:4317)
//
// # Usage
//
//	# Build
//	go build -o observer ./cmd/observer
//
//	# Serve with defaults
//	./observer serve
//
//	# Serve with a config file
//	./observer --config /etc/observer/observer.yaml serve
//
//	# Archive the data directory and upload it to GCS
//	./observer backup --bucket my-backups --sa-key /secrets/sa.json
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the optional observer.yaml config file.
//
// Environment variables override file values, and unset fields fall back
// to the service defaults, so a partial file is fine.
type FileConfig struct {
	Port              int    `yaml:"port"`
	OpsPort           int    `yaml:"ops_port"`
	DataDir           string `yaml:"data_dir"`
	EnablePersistence *bool  `yaml:"enable_persistence"`
	FlushQueue        int    `yaml:"flush_queue"`

	// APIKeysFile points at a "name:token" allow-list file that is
	// hot-reloaded on change. Takes precedence over OBSERVER_API_KEYS.
	APIKeysFile string `yaml:"api_keys_file"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Dir    string `yaml:"dir"`
	} `yaml:"log"`
}

var (
	configPath string
	fileCfg    FileConfig

	rootCmd = &cobra.Command{
		Use:   "observer",
		Short: "Run and manage the AleutianObserve telemetry service",
		Long: `Observer is the Aleutian telemetry sidecar: an HTTP service that
ingests logs and metrics from the rest of the stack, answers filtered
queries, and keeps alert definitions and compliance summaries.`,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "observer.yaml",
		"Path to the optional YAML config file")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		loaded, err := loadFileConfig(configPath)
		if err != nil {
			if os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
				// No file at the default path: run on environment
				// variables and built-in defaults.
				return
			}
			log.Fatalf("Error loading config %s: %v", configPath, err)
		}
		fileCfg = loaded
	}
}

// loadFileConfig parses the YAML config at path. The os error is
// returned unwrapped so callers can distinguish a missing file from a
// malformed one.
func loadFileConfig(path string) (FileConfig, error) {
	var cfg FileConfig

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
// "1", "true", and "yes" (case-insensitive) read as true; any other
// non-empty value reads as false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
