// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches rapid rewrites of the key file (editors often
// write several events per save) into one reload.
const defaultDebounce = 250 * time.Millisecond

// KeysHandler receives the freshly parsed allow-list after a reload.
type KeysHandler func(keys map[string]string)

// KeyWatcher hot-reloads the API-key allow-list file.
//
// # Description
//
// Watches the file's parent directory (watching the file itself would
// lose the watch when an editor replaces it by rename) and, after a
// debounce window, re-parses the file and hands the result to the
// handler. A file that becomes unreadable keeps the previous allow-list
// in effect; credentials are never dropped because of a bad write.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single
// goroutine.
type KeyWatcher struct {
	path     string
	dir      string
	base     string
	watcher  *fsnotify.Watcher
	handler  KeysHandler
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// NewKeyWatcher creates a watcher for the allow-list file at path.
// debounce <= 0 selects the default window. Call Start to begin
// watching and Stop to release the underlying notifier.
func NewKeyWatcher(path string, handler KeysHandler, debounce time.Duration) (*KeyWatcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve api key file path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &KeyWatcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		watcher:  watcher,
		handler:  handler,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for changes to the key file.
//
// The context cancels watching; Stop does too. Calling Start twice is a
// no-op.
func (w *KeyWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and releases the underlying notifier.
func (w *KeyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true while the watcher is active.
func (w *KeyWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

func (w *KeyWatcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			// Write for in-place edits, Create/Rename for replace-by-rename.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("api key watcher error", "error", err)
		}
	}
}

// reload re-parses the key file and hands the result to the handler.
// Read failures keep the previous allow-list in effect.
func (w *KeyWatcher) reload() {
	keys, err := LoadKeysFile(w.path)
	if err != nil {
		slog.Warn("api key file unreadable, keeping previous allow-list",
			"path", w.path, "error", err)
		return
	}

	slog.Info("api key allow-list reloaded", "path", w.path, "credentials", len(keys))
	if w.handler != nil {
		w.handler(keys)
	}
}
