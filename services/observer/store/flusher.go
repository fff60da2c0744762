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
	"log/slog"
	"sync"
)

// Flusher persists store state in the background.
//
// Description:
//
//	Mutations call Schedule, which marks the store dirty via a bounded
//	channel (capacity 1 by default). The worker goroutine drains a mark,
//	copies the current state, and writes all three snapshots. Because
//	the copy happens at flush time, one mark covers every mutation since
//	the previous flush: a burst of N writes produces at most a handful
//	of snapshot writes, not N. A deeper queue only adds redundant
//	flushes; it never changes what ends up on disk.
//
//	Schedule never blocks the mutating request. A flush failure is
//	logged and dropped; the next mutation schedules a retry by virtue
//	of marking the store dirty again.
//
// Thread Safety:
//
//	Schedule is safe from any goroutine. Start and Stop are idempotent;
//	Stop waits for the worker to exit and flushes any state marked
//	dirty before Stop was called. Stop without a prior Start performs
//	the dirty-check flush inline.
type Flusher struct {
	store     *Store
	snapshots *SnapshotStore

	pending chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewFlusher creates a flusher for the given store and snapshot store.
// queueSize bounds the pending dirty marks; values below 1 are treated
// as 1.
func NewFlusher(store *Store, snapshots *SnapshotStore, queueSize int) *Flusher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Flusher{
		store:     store,
		snapshots: snapshots,
		pending:   make(chan struct{}, queueSize),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background worker.
func (f *Flusher) Start() {
	f.startOnce.Do(func() {
		f.started = true
		go f.run()
	})
}

// Stop signals the worker to exit and blocks until it has. A dirty
// mark outstanding at that point is flushed before Stop returns, so
// no acknowledged mutation is silently dropped on a clean shutdown.
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
		if !f.started {
			// Worker never ran; handle any dirty marks here.
			f.drain()
			return
		}
		<-f.doneCh
	})
}

// Schedule marks the store dirty. Non-blocking: if a flush is already
// queued, the pending one will pick this state up too.
func (f *Flusher) Schedule() {
	select {
	case f.pending <- struct{}{}:
	default:
	}
}

func (f *Flusher) run() {
	defer close(f.doneCh)
	for {
		select {
		case <-f.stopCh:
			// Final drain before exiting.
			f.drain()
			return
		case <-f.pending:
			f.flush()
		}
	}
}

// drain consumes all queued dirty marks and flushes once if any were
// present. All marks reference the same live state, so one flush covers
// them.
func (f *Flusher) drain() {
	dirty := false
	for {
		select {
		case <-f.pending:
			dirty = true
		default:
			if dirty {
				f.flush()
			}
			return
		}
	}
}

// flush copies the store state and writes all three snapshots.
// Failures are logged, never propagated; durability is best-effort.
func (f *Flusher) flush() {
	logs, metrics, alerts := f.store.exportState()

	if err := f.snapshots.SaveLogs(logs); err != nil {
		slog.Warn("failed to persist logs snapshot", "error", err)
	}
	if err := f.snapshots.SaveMetrics(metrics); err != nil {
		slog.Warn("failed to persist metrics snapshot", "error", err)
	}
	if err := f.snapshots.SaveAlerts(alerts); err != nil {
		slog.Warn("failed to persist alerts snapshot", "error", err)
	}
}
