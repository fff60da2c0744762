// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging configures structured logging for Aleutian services.
//
// This package is built on Go's standard library slog package. It owns
// the one decision services should not repeat: how the process-wide
// default logger is constructed.
//
//   - Default: stderr output (follows Unix conventions)
//   - Format: JSON when stderr is not a terminal, human-readable text
//     when it is; override via Config.Format
//   - Optional: file logging with automatic directory creation; file
//     logs are always JSON
//
// # Basic Usage
//
//	closeLogs, err := logging.Setup(logging.Config{
//	    Level:   "info",
//	    Service: "observer",
//	})
//	if err != nil {
//	    return err
//	}
//	defer closeLogs()
//
//	slog.Info("starting server", "port", cfg.Port)
//
// # File Logging
//
// Setting Config.LogDir writes logs to both stderr and a file named
// `{service}_{date}.log`:
//
//	logging.Setup(logging.Config{
//	    Level:   "info",
//	    LogDir:  "~/.aleutian/logs",  // Supports ~ expansion
//	    Service: "observer",
//	})
//
// # Security Considerations
//
// This package does NOT automatically redact sensitive data.
// Callers must ensure tokens and secrets are not logged:
//
//	// BAD: logs sensitive data
//	slog.Info("auth", "token", authToken)
//
//	// GOOD: log metadata only
//	slog.Info("auth", "token_present", authToken != "")
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Config configures the process-wide logger built by Setup.
//
// A zero-value Config writes Info+ messages to stderr, choosing the
// format from the terminal check described on Format.
type Config struct {
	// Level sets the minimum log level: "debug", "info", "warn", or
	// "error". Messages below this level are discarded.
	// Default: "info"
	Level string

	// Format selects the stderr output format: "json", "text", or
	// "auto". With "auto", text is used when stderr is a terminal and
	// JSON otherwise, so interactive runs stay readable while captured
	// output stays machine-parseable.
	// Default: "auto"
	Format string

	// LogDir enables file logging to the specified directory.
	//
	// When set, logs are written to both stderr and a file named
	// "{Service}_{YYYY-MM-DD}.log" in JSON format. The directory is
	// created with 0750 permissions if it doesn't exist. Supports ~
	// for home directory expansion.
	// Default: "" (file logging disabled)
	LogDir string

	// Service identifies the component generating logs. The value is
	// included in every log entry as the "service" attribute.
	// Default: "" (no service attribute)
	Service string

	// Quiet disables stderr output. Logs are then only written to file
	// (if LogDir is set). Useful for daemon processes where stderr
	// isn't monitored.
	// Default: false (stderr enabled)
	Quiet bool
}

// ParseLevel converts a level name to its slog.Level.
//
// Accepted names (case-insensitive): "debug", "info", "warn",
// "warning", "error". The empty string parses as Info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Setup builds the logger described by cfg and installs it as the
// process-wide slog default.
//
// The returned close function syncs and closes the log file when file
// logging is enabled; call it on shutdown. Setup fails only on an
// unparsable level or an unwritable log directory — a missing terminal
// or unset fields fall back to defaults.
func Setup(cfg Config) (closeFn func() error, err error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if !cfg.Quiet {
		if useJSON(cfg.Format) {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	var file *os.File
	if cfg.LogDir != "" {
		logDir := expandPath(cfg.LogDir)
		if err := os.MkdirAll(logDir, 0750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		serviceName := cfg.Service
		if serviceName == "" {
			serviceName = "aleutian"
		}
		filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
		file, err = os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		// File logs are always JSON (machine-parseable).
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		// Quiet with no file: discard below Error, keep errors visible.
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", cfg.Service),
		})
	}

	slog.SetDefault(slog.New(handler))

	closeFn = func() error {
		if file == nil {
			return nil
		}
		if err := file.Sync(); err != nil {
			return fmt.Errorf("sync log file: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		return nil
	}
	return closeFn, nil
}

// useJSON decides the stderr format for the given Format setting.
func useJSON(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return true
	case "text":
		return false
	default:
		// "auto": JSON unless a human is watching.
		fd := os.Stderr.Fd()
		return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	}
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
//
// This enables simultaneous output to stderr and file with
// potentially different formats (text vs JSON).
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// =============================================================================
// Helper Functions
// =============================================================================

// expandPath expands ~ to the user's home directory.
//
// Examples:
//   - "~/.aleutian/logs" -> "/home/user/.aleutian/logs"
//   - "/var/log" -> "/var/log" (unchanged)
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
