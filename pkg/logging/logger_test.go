// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ParseLevel Tests
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"", slog.LevelInfo, false},
		{"  INFO  ", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Setup Tests
// =============================================================================

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(Config{Level: "loud"})
	if err == nil {
		t.Fatal("Setup with invalid level should fail")
	}
}

func TestSetup_DefaultConfig(t *testing.T) {
	closeFn, err := Setup(Config{})
	if err != nil {
		t.Fatalf("Setup(zero config) returned error: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close function returned error: %v", err)
	}
}

func TestSetup_FileLogging(t *testing.T) {
	dir := t.TempDir()

	closeFn, err := Setup(Config{
		Level:   "debug",
		LogDir:  dir,
		Service: "observer",
		Quiet:   true,
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	slog.Info("file logging works", "key", "value")

	if err := closeFn(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	wantName := "observer_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, wantName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	// File logs are JSON with the service attribute attached.
	var entry map[string]any
	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, line)
	}
	if entry["msg"] != "file logging works" {
		t.Errorf("msg = %v, want %q", entry["msg"], "file logging works")
	}
	if entry["service"] != "observer" {
		t.Errorf("service = %v, want %q", entry["service"], "observer")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

func TestSetup_DefaultServiceFileName(t *testing.T) {
	dir := t.TempDir()

	closeFn, err := Setup(Config{LogDir: dir, Quiet: true})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	slog.Info("named with fallback")
	if err := closeFn(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	wantName := "aleutian_" + time.Now().Format("2006-01-02") + ".log"
	if _, err := os.Stat(filepath.Join(dir, wantName)); err != nil {
		t.Errorf("expected log file %s: %v", wantName, err)
	}
}

func TestSetup_UnwritableLogDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(dir, 0750)

	_, err := Setup(Config{LogDir: filepath.Join(dir, "nested")})
	if err == nil {
		t.Error("Setup with unwritable log dir should fail")
	}
}

func TestUseJSON(t *testing.T) {
	if !useJSON("json") {
		t.Error(`useJSON("json") = false, want true`)
	}
	if useJSON("text") {
		t.Error(`useJSON("text") = true, want false`)
	}
	if !useJSON("JSON") {
		t.Error("format matching should be case-insensitive")
	}
}

// =============================================================================
// multiHandler Tests
// =============================================================================

// captureHandler records handled records into a buffer.
type captureHandler struct {
	slog.Handler
	buf *bytes.Buffer
}

func newCaptureHandler(level slog.Level) *captureHandler {
	buf := &bytes.Buffer{}
	return &captureHandler{
		Handler: slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}),
		buf:     buf,
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	a := newCaptureHandler(slog.LevelDebug)
	b := newCaptureHandler(slog.LevelDebug)

	logger := slog.New(&multiHandler{handlers: []slog.Handler{a, b}})
	logger.Info("both destinations")

	if !strings.Contains(a.buf.String(), "both destinations") {
		t.Error("first handler did not receive the record")
	}
	if !strings.Contains(b.buf.String(), "both destinations") {
		t.Error("second handler did not receive the record")
	}
}

func TestMultiHandler_RespectsPerHandlerLevel(t *testing.T) {
	quiet := newCaptureHandler(slog.LevelError)
	loud := newCaptureHandler(slog.LevelDebug)

	logger := slog.New(&multiHandler{handlers: []slog.Handler{quiet, loud}})
	logger.Info("info only")

	if quiet.buf.Len() != 0 {
		t.Error("error-level handler should not receive info records")
	}
	if loud.buf.Len() == 0 {
		t.Error("debug-level handler should receive info records")
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := &multiHandler{handlers: []slog.Handler{
		newCaptureHandler(slog.LevelError),
		newCaptureHandler(slog.LevelInfo),
	}}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(info) = false, want true (one handler accepts info)")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(debug) = true, want false (no handler accepts debug)")
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	a := newCaptureHandler(slog.LevelDebug)
	b := newCaptureHandler(slog.LevelDebug)

	base := &multiHandler{handlers: []slog.Handler{a, b}}
	logger := slog.New(base.WithAttrs([]slog.Attr{slog.String("service", "observer")}))
	logger.Info("attributed")

	for i, buf := range []*bytes.Buffer{a.buf, b.buf} {
		if !strings.Contains(buf.String(), `"service":"observer"`) {
			t.Errorf("handler %d missing service attribute: %s", i, buf.String())
		}
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/logs", filepath.Join(home, "logs")},
		{"/var/log", "/var/log"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
