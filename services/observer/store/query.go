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
	"sort"
	"time"

	"github.com/AleutianAI/AleutianObserve/services/observer/datatypes"
)

// LogFilter narrows a log query. Zero-value fields are inactive: an
// empty Source or Level matches everything, a nil bound is open-ended.
type LogFilter struct {
	Source string
	Level  string
	From   *time.Time
	To     *time.Time
}

// MetricFilter narrows a metric query. Metric matches entries whose
// value map contains the named series, regardless of its value.
type MetricFilter struct {
	Source string
	Metric string
	From   *time.Time
	To     *time.Time
}

// FilterLogs returns the entries matching every active filter field,
// sorted by timestamp descending (most recent first). Entries with
// equal timestamps sort in no particular order.
//
// Filter semantics:
//   - Source and Level are exact, case-sensitive string matches.
//   - From and To are inclusive bounds: an entry exactly on either
//     boundary matches.
//
// The result is always a freshly-allocated, non-nil slice.
func FilterLogs(entries []datatypes.LogEntry, f LogFilter) []datatypes.LogEntry {
	matched := make([]datatypes.LogEntry, 0)
	for _, entry := range entries {
		if f.Source != "" && entry.Source != f.Source {
			continue
		}
		if f.Level != "" && entry.Level != f.Level {
			continue
		}
		if !inWindow(entry.Timestamp, f.From, f.To) {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	return matched
}

// FilterMetrics returns the entries matching every active filter field,
// sorted by timestamp descending. Semantics mirror FilterLogs except
// that Metric selects entries carrying that series name.
func FilterMetrics(entries []datatypes.MetricEntry, f MetricFilter) []datatypes.MetricEntry {
	matched := make([]datatypes.MetricEntry, 0)
	for _, entry := range entries {
		if f.Source != "" && entry.Source != f.Source {
			continue
		}
		if f.Metric != "" {
			if _, ok := entry.Metrics[f.Metric]; !ok {
				continue
			}
		}
		if !inWindow(entry.Timestamp, f.From, f.To) {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	return matched
}

// Paginate slices one page out of items and returns it with the total
// match count (counted before pagination, so callers can derive page
// counts).
//
// Pages are 1-indexed; a page value below 1 is treated as 1. A limit
// of zero or less disables pagination and returns every item. A page
// past the end returns an empty, non-nil slice.
func Paginate[T any](items []T, page, limit int) ([]T, int) {
	total := len(items)
	if limit <= 0 {
		return items, total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return make([]T, 0), total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total
}

// inWindow reports whether ts falls inside the inclusive [from, to]
// window. Nil bounds are open.
func inWindow(ts time.Time, from, to *time.Time) bool {
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && ts.After(*to) {
		return false
	}
	return true
}
