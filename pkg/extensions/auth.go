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
)

// ErrUnauthorized is returned when authentication fails.
// Callers should wrap this error with additional context.
//
// Example:
//
//	if !knownToken {
//	    return nil, fmt.Errorf("unknown bearer token: %w", extensions.ErrUnauthorized)
//	}
var ErrUnauthorized = errors.New("unauthorized")

// AnonymousClient is the ClientID reported for requests authenticated
// in open mode, where no specific credential identifies the caller.
const AnonymousClient = "anonymous"

// AuthInfo contains identity information returned after successful
// authentication.
//
// Required fields (always populated):
//   - ClientID: the allow-list name of the credential that authenticated,
//     or "anonymous" when the deployment runs in open mode.
type AuthInfo struct {
	// ClientID identifies the caller for logging and metrics.
	// Never empty after a successful Validate.
	ClientID string
}

// AuthProvider validates bearer tokens and returns caller identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
//
// # Open Source Behavior
//
// The default TokenListProvider checks tokens against a static allow-list
// loaded from configuration. An empty allow-list accepts every presented
// token (open/dev mode) so the service can run without provisioning
// credentials.
//
// # Enterprise Implementation
//
// Enterprise versions implement this interface to validate tokens against
// identity providers like Okta, Auth0, or Azure AD.
//
// Example enterprise implementation:
//
//	type OktaAuthProvider struct {
//	    client *okta.Client
//	}
//
//	func (p *OktaAuthProvider) Validate(ctx context.Context, token string) (*AuthInfo, error) {
//	    claims, err := p.client.VerifyToken(ctx, token)
//	    if err != nil {
//	        return nil, fmt.Errorf("okta validation failed: %w", ErrUnauthorized)
//	    }
//	    return &AuthInfo{ClientID: claims.Subject}, nil
//	}
type AuthProvider interface {
	// Validate checks if the token is valid and returns the caller's identity.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - token: The raw bearer token from the Authorization header
	//
	// Returns:
	//   - *AuthInfo: Caller identity if valid
	//   - error: ErrUnauthorized (or wrapped) if invalid, other errors for failures
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// TokenListProvider authenticates against a configured name → token
// allow-list.
//
// The zero value is usable and behaves as an empty allow-list (open mode).
// The key set can be swapped at runtime via SetKeys, which supports
// hot-reloading credentials from a watched file without restarting.
//
// Thread-safe: the token set is guarded by an internal RWMutex.
//
// Example:
//
//	provider := extensions.NewTokenListProvider(map[string]string{
//	    "dashboard": "s3cret",
//	})
//	info, err := provider.Validate(ctx, "s3cret")
//	// info.ClientID == "dashboard", err == nil
type TokenListProvider struct {
	mu sync.RWMutex
	// byToken maps a bearer token to its allow-list name.
	byToken map[string]string
}

// NewTokenListProvider builds a provider from name → token pairs.
//
// A nil or empty map yields an open-mode provider that accepts any
// non-empty token.
func NewTokenListProvider(keys map[string]string) *TokenListProvider {
	p := &TokenListProvider{}
	p.SetKeys(keys)
	return p
}

// Validate checks the presented token against the current allow-list.
//
// An empty token always fails: the transport requires a well-formed
// bearer credential even in open mode. With a non-empty allow-list the
// token must match one of the configured values exactly.
func (p *TokenListProvider) Validate(_ context.Context, token string) (*AuthInfo, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.byToken) == 0 {
		// Open mode: no credentials configured, accept anything presented.
		return &AuthInfo{ClientID: AnonymousClient}, nil
	}
	name, ok := p.byToken[token]
	if !ok {
		return nil, ErrUnauthorized
	}
	return &AuthInfo{ClientID: name}, nil
}

// SetKeys replaces the allow-list with the given name → token pairs.
//
// Safe to call while Validate is in flight; in-flight checks see either
// the old or the new set, never a partial one.
func (p *TokenListProvider) SetKeys(keys map[string]string) {
	byToken := make(map[string]string, len(keys))
	for name, token := range keys {
		if token == "" {
			continue
		}
		byToken[token] = name
	}

	p.mu.Lock()
	p.byToken = byToken
	p.mu.Unlock()
}

// Len reports the number of configured credentials. Zero means open mode.
func (p *TokenListProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byToken)
}

// NopAuthProvider accepts every request, including ones with no token.
//
// It exists for tests and for embedding the handlers behind an outer
// gateway that has already authenticated the caller.
//
// Thread-safe: This implementation has no mutable state.
type NopAuthProvider struct{}

// Validate always returns an anonymous identity.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{ClientID: AnonymousClient}, nil
}

// Compile-time interface compliance checks.
var (
	_ AuthProvider = (*TokenListProvider)(nil)
	_ AuthProvider = (*NopAuthProvider)(nil)
)
