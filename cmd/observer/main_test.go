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
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("OBSERVER_TEST_STRING", "snapshots")
	if got := getEnvString("OBSERVER_TEST_STRING", "data"); got != "snapshots" {
		t.Errorf("set variable ignored, got %q", got)
	}

	t.Setenv("OBSERVER_TEST_STRING", "")
	if got := getEnvString("OBSERVER_TEST_STRING", "data"); got != "data" {
		t.Errorf("expected default for empty variable, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("OBSERVER_TEST_INT", "14000")
	if got := getEnvInt("OBSERVER_TEST_INT", 1); got != 14000 {
		t.Errorf("set variable ignored, got %d", got)
	}

	t.Setenv("OBSERVER_TEST_INT", "not-a-number")
	if got := getEnvInt("OBSERVER_TEST_INT", 7); got != 7 {
		t.Errorf("expected default for unparsable variable, got %d", got)
	}

	t.Setenv("OBSERVER_TEST_INT", "")
	if got := getEnvInt("OBSERVER_TEST_INT", 9); got != 9 {
		t.Errorf("expected default for empty variable, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback bool
		want     bool
	}{
		{name: "empty uses default true", value: "", fallback: true, want: true},
		{name: "empty uses default false", value: "", fallback: false, want: false},
		{name: "one", value: "1", want: true},
		{name: "true", value: "true", want: true},
		{name: "true upper", value: "TRUE", want: true},
		{name: "yes mixed case", value: "Yes", want: true},
		{name: "zero", value: "0", fallback: true, want: false},
		{name: "false", value: "false", fallback: true, want: false},
		{name: "no", value: "no", fallback: true, want: false},
		{name: "unrecognized", value: "enabled", fallback: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OBSERVER_TEST_BOOL", tt.value)
			if got := getEnvBool("OBSERVER_TEST_BOOL", tt.fallback); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v",
					tt.value, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observer.yaml")
	content := `port: 14000
ops_port: 9100
data_dir: /var/lib/observer
enable_persistence: false
flush_queue: 4
api_keys_file: /etc/observer/keys
rate_limit:
  requests_per_second: 25
  burst: 50
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("loadFileConfig failed: %v", err)
	}

	if cfg.Port != 14000 || cfg.OpsPort != 9100 {
		t.Errorf("ports = %d/%d, want 14000/9100", cfg.Port, cfg.OpsPort)
	}
	if cfg.DataDir != "/var/lib/observer" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.EnablePersistence == nil || *cfg.EnablePersistence {
		t.Error("enable_persistence: false should parse as an explicit false")
	}
	if cfg.FlushQueue != 4 {
		t.Errorf("flush_queue = %d", cfg.FlushQueue)
	}
	if cfg.APIKeysFile != "/etc/observer/keys" {
		t.Errorf("api_keys_file = %q", cfg.APIKeysFile)
	}
	if cfg.RateLimit.RequestsPerSecond != 25 || cfg.RateLimit.Burst != 50 {
		t.Errorf("rate_limit = %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFileConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observer.yaml")
	if err := os.WriteFile(path, []byte("port: 14000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("loadFileConfig failed: %v", err)
	}
	if cfg.Port != 14000 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.EnablePersistence != nil {
		t.Error("absent enable_persistence should stay nil")
	}
	if cfg.DataDir != "" || cfg.OpsPort != 0 {
		t.Errorf("absent fields should stay zero, got %+v", cfg)
	}
}

func TestLoadFileConfig_Missing(t *testing.T) {
	_, err := loadFileConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestLoadFileConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observer.yaml")
	if err := os.WriteFile(path, []byte("port: [not an int"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := loadFileConfig(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if os.IsNotExist(err) {
		t.Error("a parse failure must not read as a missing file")
	}
}
