// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines interfaces for pluggable functionality.
//
// This package provides extension points that allow enterprise deployments
// to add capabilities without modifying the core AleutianObserve codebase.
// The open source version uses allow-list and no-op defaults.
//
// # Design Philosophy
//
// AleutianObserve is designed as a fully functional local service that
// works offline without any external dependencies. Deployment-specific
// features are implemented by providing concrete implementations of these
// interfaces and injecting them via ServiceOptions.
//
// # Extension Categories
//
// The package is organized by domain:
//
//   - auth.go: Bearer-token authentication (AuthProvider)
//   - mirror.go: Secondary time-series sinks (MetricMirror)
//
// # Usage (Open Source)
//
// The open source version uses the built-in defaults:
//
//	opts := extensions.DefaultOptions()
//	svc, err := observer.New(cfg, opts)
//
// # Usage (Custom Deployments)
//
// Deployments provide concrete implementations:
//
//	opts := extensions.ServiceOptions{
//	    AuthProvider: corp.NewOktaProvider(config),
//	    MetricMirror: sink.NewInfluxMirror(influxCfg),
//	}
//	svc, err := observer.New(cfg, opts)
//
// # Thread Safety
//
// All interface implementations must be safe for concurrent use.
// Multiple goroutines may call methods simultaneously.
package extensions

// ServiceOptions groups all extension points for service configuration.
//
// Pass this to service constructors to swap in deployment-specific
// behavior. All fields are optional; nil values are replaced with
// defaults when DefaultOptions() is called or when services check for nil.
type ServiceOptions struct {
	// AuthProvider validates bearer tokens on data endpoints.
	// Default: TokenListProvider with an empty allow-list (open mode)
	AuthProvider AuthProvider

	// MetricMirror receives a best-effort copy of every ingested metric
	// entry, for forwarding to an external time-series store.
	// Default: NopMetricMirror (discards all entries)
	MetricMirror MetricMirror
}

// DefaultOptions returns ServiceOptions with open-mode defaults.
//
// This is the configuration used when no credentials and no mirror are
// configured: every presented token is accepted and mirrored writes are
// discarded.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		AuthProvider: NewTokenListProvider(nil),
		MetricMirror: &NopMetricMirror{},
	}
}

// WithAuth returns a copy of opts with the given AuthProvider.
// Useful for fluent configuration.
func (opts ServiceOptions) WithAuth(provider AuthProvider) ServiceOptions {
	opts.AuthProvider = provider
	return opts
}

// WithMirror returns a copy of opts with the given MetricMirror.
func (opts ServiceOptions) WithMirror(mirror MetricMirror) ServiceOptions {
	opts.MetricMirror = mirror
	return opts
}
