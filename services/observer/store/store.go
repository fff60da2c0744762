// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store holds the in-memory event collections behind the
// observer API: append-only logs and metrics, a named alert registry,
// a pure query engine over them, and the snapshot machinery that makes
// them survive restarts.
package store

import (
	"sync"

	"github.com/AleutianAI/AleutianObserve/services/observer/datatypes"
)

// Store is the in-memory system of record for the observer service.
//
// Description:
//
//	One mutex guards all three collections. Writes are short (append or
//	map assignment), and reads copy the relevant collection out under
//	the lock so filtering and sorting happen without holding it. That
//	keeps the critical sections tiny and the consistency story simple:
//	every reader sees a complete snapshot, never a torn one.
//
//	Mutations nudge the Flusher, which persists a consistent copy of
//	all three collections in the background. Persistence is best-effort
//	and never makes a mutation fail.
//
// Thread Safety:
//
//	All exported methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	logs    []datatypes.LogEntry
	metrics []datatypes.MetricEntry
	alerts  map[string]datatypes.AlertRule

	snapshots *SnapshotStore
	flusher   *Flusher
}

// Options tunes store construction. The zero value is ready to use.
type Options struct {
	// FlushQueue bounds the flusher's pending dirty marks. Values below
	// 1 are treated as 1, which coalesces all pending work into a single
	// flush.
	FlushQueue int
}

// NewStore creates an empty store with default options. snapshots may
// be nil for a purely in-memory store; otherwise the store persists
// through it when persistence is enabled.
//
// Call Bootstrap to load persisted state, Start to begin background
// flushing, and Close on shutdown to drain the final flush.
func NewStore(snapshots *SnapshotStore) *Store {
	return NewStoreWithOptions(snapshots, Options{})
}

// NewStoreWithOptions is NewStore with explicit tuning options.
func NewStoreWithOptions(snapshots *SnapshotStore, opts Options) *Store {
	s := &Store{
		logs:      []datatypes.LogEntry{},
		metrics:   []datatypes.MetricEntry{},
		alerts:    map[string]datatypes.AlertRule{},
		snapshots: snapshots,
	}
	if snapshots != nil && snapshots.Enabled() {
		s.flusher = NewFlusher(s, snapshots, opts.FlushQueue)
	}
	return s
}

// Bootstrap replaces the in-memory collections with whatever the
// snapshot store can recover. Collections that cannot be recovered
// start empty; Bootstrap never fails.
//
// Call before Start, ahead of serving traffic.
func (s *Store) Bootstrap() {
	if s.snapshots == nil || !s.snapshots.Enabled() {
		return
	}
	logs := s.snapshots.LoadLogs()
	metrics := s.snapshots.LoadMetrics()
	alerts := s.snapshots.LoadAlerts()

	s.mu.Lock()
	s.logs = logs
	s.metrics = metrics
	s.alerts = alerts
	s.mu.Unlock()
}

// Start launches the background flusher, if persistence is enabled.
func (s *Store) Start() {
	if s.flusher != nil {
		s.flusher.Start()
	}
}

// Close stops the background flusher, persisting any state mutated
// since the last flush. Safe to call when Start was never called.
func (s *Store) Close() {
	if s.flusher != nil {
		s.flusher.Stop()
	}
}

// AppendLog adds a log entry to the store and schedules a flush.
func (s *Store) AppendLog(entry datatypes.LogEntry) {
	s.mu.Lock()
	s.logs = append(s.logs, entry)
	s.mu.Unlock()
	s.scheduleFlush()
}

// AppendMetric adds a metric entry to the store and schedules a flush.
func (s *Store) AppendMetric(entry datatypes.MetricEntry) {
	s.mu.Lock()
	s.metrics = append(s.metrics, entry)
	s.mu.Unlock()
	s.scheduleFlush()
}

// UpsertAlert creates or replaces the alert rule registered under name
// and returns the stored rule.
//
// Replacement updates the caller-supplied fields only: last_triggered
// and active carry over from the previous registration, so redefining
// a rule's expression never erases its firing history.
func (s *Store) UpsertAlert(name string, rule datatypes.AlertRule) datatypes.AlertRule {
	if rule.NotificationChannels == nil {
		rule.NotificationChannels = []string{}
	}

	s.mu.Lock()
	if existing, ok := s.alerts[name]; ok {
		rule.LastTriggered = existing.LastTriggered
		rule.Active = existing.Active
	}
	s.alerts[name] = rule
	s.mu.Unlock()

	s.scheduleFlush()
	return rule
}

// ListAlerts returns every registered alert with its name attached.
// Order is unspecified. The result is always non-nil.
func (s *Store) ListAlerts() []datatypes.NamedAlertRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	named := make([]datatypes.NamedAlertRule, 0, len(s.alerts))
	for name, rule := range s.alerts {
		named = append(named, datatypes.NamedAlertRule{Name: name, AlertRule: rule})
	}
	return named
}

// QueryLogs filters, sorts, and paginates the stored log entries.
// Returns one page of matches plus the total match count.
func (s *Store) QueryLogs(f LogFilter, page, limit int) ([]datatypes.LogEntry, int) {
	s.mu.Lock()
	entries := make([]datatypes.LogEntry, len(s.logs))
	copy(entries, s.logs)
	s.mu.Unlock()

	return Paginate(FilterLogs(entries, f), page, limit)
}

// QueryMetrics filters, sorts, and paginates the stored metric entries.
// Returns one page of matches plus the total match count.
func (s *Store) QueryMetrics(f MetricFilter, page, limit int) ([]datatypes.MetricEntry, int) {
	s.mu.Lock()
	entries := make([]datatypes.MetricEntry, len(s.metrics))
	copy(entries, s.metrics)
	s.mu.Unlock()

	return Paginate(FilterMetrics(entries, f), page, limit)
}

// Counts returns the current size of each collection.
func (s *Store) Counts() (logs, metrics, alerts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs), len(s.metrics), len(s.alerts)
}

// exportState copies all three collections under one lock acquisition,
// giving the flusher a mutually-consistent view to persist.
func (s *Store) exportState() ([]datatypes.LogEntry, []datatypes.MetricEntry, map[string]datatypes.AlertRule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := make([]datatypes.LogEntry, len(s.logs))
	copy(logs, s.logs)
	metrics := make([]datatypes.MetricEntry, len(s.metrics))
	copy(metrics, s.metrics)
	alerts := make(map[string]datatypes.AlertRule, len(s.alerts))
	for name, rule := range s.alerts {
		alerts[name] = rule
	}
	return logs, metrics, alerts
}

func (s *Store) scheduleFlush() {
	if s.flusher != nil {
		s.flusher.Schedule()
	}
}
