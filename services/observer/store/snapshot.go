// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AleutianAI/AleutianObserve/services/observer/datatypes"
)

// Snapshot file names under the data directory. Each collection is an
// independently-replaceable JSON document: operators can edit or delete
// one without touching the others.
const (
	logsFile    = "logs.json"
	metricsFile = "metrics.json"
	alertsFile  = "alerts.json"
)

// SnapshotStore reads and writes the durable JSON snapshots for the
// three collections. It is pure file I/O with no business logic.
//
// Description:
//
//	Saves serialize a collection as indented JSON and write it with a
//	temp-file-plus-rename strategy, so a crash mid-write never corrupts
//	the previous snapshot: the rename is the only visibility change.
//	Loads are tolerant by contract — a missing, unreadable, or
//	unparsable file degrades to an empty collection and is logged, never
//	returned as an error.
//
//	When persistence is disabled every save is a no-op and every load
//	returns empty, so callers never branch on the toggle.
//
// Thread Safety:
//
//	Methods are safe to call concurrently for different files. The
//	Flusher serializes writes in practice; concurrent saves of the same
//	file would not corrupt it (last rename wins) but may waste work.
type SnapshotStore struct {
	dataDir string
	enabled bool
}

// NewSnapshotStore creates a snapshot store rooted at dataDir.
//
// The directory is created on first use when persistence is enabled.
// Returns an error only if the directory cannot be created.
func NewSnapshotStore(dataDir string, enabled bool) (*SnapshotStore, error) {
	if enabled {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return &SnapshotStore{dataDir: dataDir, enabled: enabled}, nil
}

// Enabled reports whether persistence is active.
func (s *SnapshotStore) Enabled() bool {
	return s.enabled
}

// LoadLogs reads the persisted log entries, or an empty slice if the
// snapshot is absent, unreadable, or unparsable.
func (s *SnapshotStore) LoadLogs() []datatypes.LogEntry {
	var entries []datatypes.LogEntry
	if !s.loadJSON(logsFile, &entries) || entries == nil {
		return []datatypes.LogEntry{}
	}
	return entries
}

// LoadMetrics reads the persisted metric entries, or an empty slice if
// the snapshot is absent, unreadable, or unparsable.
func (s *SnapshotStore) LoadMetrics() []datatypes.MetricEntry {
	var entries []datatypes.MetricEntry
	if !s.loadJSON(metricsFile, &entries) || entries == nil {
		return []datatypes.MetricEntry{}
	}
	return entries
}

// LoadAlerts reads the persisted alerts-by-name map, or an empty map if
// the snapshot is absent, unreadable, or unparsable.
func (s *SnapshotStore) LoadAlerts() map[string]datatypes.AlertRule {
	var alerts map[string]datatypes.AlertRule
	if !s.loadJSON(alertsFile, &alerts) || alerts == nil {
		return map[string]datatypes.AlertRule{}
	}
	return alerts
}

// SaveLogs writes the log entries snapshot.
func (s *SnapshotStore) SaveLogs(entries []datatypes.LogEntry) error {
	return s.saveJSON(logsFile, entries)
}

// SaveMetrics writes the metric entries snapshot.
func (s *SnapshotStore) SaveMetrics(entries []datatypes.MetricEntry) error {
	return s.saveJSON(metricsFile, entries)
}

// SaveAlerts writes the alerts-by-name snapshot.
func (s *SnapshotStore) SaveAlerts(alerts map[string]datatypes.AlertRule) error {
	return s.saveJSON(alertsFile, alerts)
}

// loadJSON reads and decodes one snapshot file into target. Returns
// false when the collection should fall back to empty.
func (s *SnapshotStore) loadJSON(name string, target any) bool {
	if !s.enabled {
		return false
	}
	path := filepath.Join(s.dataDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("snapshot unreadable, starting empty", "file", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		slog.Warn("snapshot corrupt, starting empty", "file", path, "error", err)
		return false
	}
	return true
}

// saveJSON atomically writes one snapshot file: temp file in the same
// directory, sync, then rename over the target.
func (s *SnapshotStore) saveJSON(name string, data any) error {
	if !s.enabled {
		return nil
	}
	path := filepath.Join(s.dataDir, name)

	// Indented output keeps the snapshots hand-editable.
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tempFile, err := os.CreateTemp(s.dataDir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(encoded); err != nil {
		tempFile.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}

	success = true
	return nil
}
