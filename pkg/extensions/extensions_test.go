// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// TokenListProvider Tests
// ============================================================================

func TestTokenListProvider_KnownToken(t *testing.T) {
	p := NewTokenListProvider(map[string]string{
		"dashboard": "s3cret",
		"collector": "0ther",
	})

	info, err := p.Validate(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("Validate(known token) returned error: %v", err)
	}
	if info.ClientID != "dashboard" {
		t.Errorf("ClientID = %q, want %q", info.ClientID, "dashboard")
	}
}

func TestTokenListProvider_UnknownToken(t *testing.T) {
	p := NewTokenListProvider(map[string]string{"dashboard": "s3cret"})

	_, err := p.Validate(context.Background(), "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Validate(unknown token) error = %v, want ErrUnauthorized", err)
	}
}

func TestTokenListProvider_EmptyToken(t *testing.T) {
	// An empty token fails even in open mode: the transport contract
	// requires a well-formed bearer credential.
	open := NewTokenListProvider(nil)
	if _, err := open.Validate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("open mode Validate(\"\") error = %v, want ErrUnauthorized", err)
	}

	closed := NewTokenListProvider(map[string]string{"a": "b"})
	if _, err := closed.Validate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("closed mode Validate(\"\") error = %v, want ErrUnauthorized", err)
	}
}

func TestTokenListProvider_OpenMode(t *testing.T) {
	p := NewTokenListProvider(nil)

	info, err := p.Validate(context.Background(), "anything-at-all")
	if err != nil {
		t.Fatalf("open mode Validate returned error: %v", err)
	}
	if info.ClientID != "anonymous" {
		t.Errorf("open mode ClientID = %q, want %q", info.ClientID, "anonymous")
	}
}

func TestTokenListProvider_ZeroValueIsOpenMode(t *testing.T) {
	var p TokenListProvider

	if _, err := p.Validate(context.Background(), "token"); err != nil {
		t.Errorf("zero-value provider should accept any token, got %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("zero-value Len() = %d, want 0", p.Len())
	}
}

func TestTokenListProvider_SetKeysSwapsAllowList(t *testing.T) {
	p := NewTokenListProvider(map[string]string{"old": "old-token"})

	p.SetKeys(map[string]string{"new": "new-token"})

	if _, err := p.Validate(context.Background(), "old-token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old token should be rejected after SetKeys, got %v", err)
	}
	info, err := p.Validate(context.Background(), "new-token")
	if err != nil {
		t.Fatalf("new token rejected after SetKeys: %v", err)
	}
	if info.ClientID != "new" {
		t.Errorf("ClientID = %q, want %q", info.ClientID, "new")
	}
}

func TestTokenListProvider_SetKeysSkipsEmptyTokens(t *testing.T) {
	p := NewTokenListProvider(map[string]string{"blank": ""})

	// A name with an empty token must not register; with nothing else
	// configured the provider is in open mode.
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (empty tokens skipped)", p.Len())
	}
}

func TestTokenListProvider_Len(t *testing.T) {
	p := NewTokenListProvider(map[string]string{
		"a": "token-a",
		"b": "token-b",
	})
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestTokenListProvider_ConcurrentValidateAndSwap(t *testing.T) {
	p := NewTokenListProvider(map[string]string{"svc": "tok"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				// Either outcome is fine mid-swap; the provider just
				// must not race.
				_, _ = p.Validate(context.Background(), "tok")
			}
		}()
	}
	for i := 0; i < 100; i++ {
		p.SetKeys(map[string]string{"svc": "tok"})
	}
	wg.Wait()
}

// ============================================================================
// NopAuthProvider Tests
// ============================================================================

func TestNopAuthProvider_AcceptsEverything(t *testing.T) {
	p := &NopAuthProvider{}

	info, err := p.Validate(context.Background(), "")
	if err != nil {
		t.Fatalf("NopAuthProvider.Validate returned error: %v", err)
	}
	if info.ClientID != "anonymous" {
		t.Errorf("ClientID = %q, want %q", info.ClientID, "anonymous")
	}
}

// ============================================================================
// ServiceOptions Tests
// ============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.AuthProvider == nil {
		t.Error("DefaultOptions().AuthProvider should not be nil")
	}
	if opts.MetricMirror == nil {
		t.Error("DefaultOptions().MetricMirror should not be nil")
	}

	provider, ok := opts.AuthProvider.(*TokenListProvider)
	if !ok {
		t.Fatal("DefaultOptions().AuthProvider should be *TokenListProvider")
	}
	if provider.Len() != 0 {
		t.Error("default provider should start in open mode")
	}
	if _, ok := opts.MetricMirror.(*NopMetricMirror); !ok {
		t.Error("DefaultOptions().MetricMirror should be *NopMetricMirror")
	}
}

func TestServiceOptions_WithAuth(t *testing.T) {
	original := DefaultOptions()
	custom := NewTokenListProvider(map[string]string{"x": "y"})

	newOpts := original.WithAuth(custom)

	if newOpts.AuthProvider != AuthProvider(custom) {
		t.Error("WithAuth should set the custom AuthProvider")
	}
	// Original should be unchanged (immutable copy).
	if orig, ok := original.AuthProvider.(*TokenListProvider); !ok || orig.Len() != 0 {
		t.Error("original options should be unchanged after WithAuth")
	}
	if newOpts.MetricMirror == nil {
		t.Error("WithAuth should preserve MetricMirror")
	}
}

func TestServiceOptions_WithMirror(t *testing.T) {
	original := DefaultOptions()
	custom := &countingMirror{}

	newOpts := original.WithMirror(custom)

	if newOpts.MetricMirror != MetricMirror(custom) {
		t.Error("WithMirror should set the custom MetricMirror")
	}
	if _, ok := original.MetricMirror.(*NopMetricMirror); !ok {
		t.Error("original options should be unchanged after WithMirror")
	}
}

// ============================================================================
// MetricMirror Tests
// ============================================================================

func TestNopMetricMirror(t *testing.T) {
	m := &NopMetricMirror{}
	err := m.MirrorMetric(context.Background(), "svc", time.Now(), map[string]float64{"cpu": 0.5})
	if err != nil {
		t.Errorf("NopMetricMirror.MirrorMetric returned error: %v", err)
	}
	m.Close()
}

// countingMirror records calls for option-wiring assertions.
type countingMirror struct {
	mu    sync.Mutex
	calls int
}

func (m *countingMirror) MirrorMetric(_ context.Context, _ string, _ time.Time, _ map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

func (m *countingMirror) Close() {}
