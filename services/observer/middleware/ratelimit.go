// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"container/list"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianObserve/pkg/extensions"
)

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate allowed per client.
	// Zero or negative disables rate limiting entirely.
	RequestsPerSecond float64

	// Burst is the bucket depth: how many requests a client can send
	// back-to-back before the sustained rate applies. Values below 1
	// are raised to 1.
	Burst int

	// MaxClients bounds how many per-client buckets are tracked at
	// once. Least recently seen clients are evicted first; an evicted
	// client that returns simply starts with a fresh bucket. Zero or
	// negative uses a default of 1024.
	MaxClients int
}

// RateLimitMiddleware creates a Gin middleware that applies a token
// bucket per client.
//
// # Description
//
// Authenticated clients are keyed by their allow-list name, so one
// client cannot starve another no matter how its traffic is routed.
// Anonymous (open mode) traffic is keyed by source IP instead, since
// every open-mode request shares the same identity.
//
// Requests over the limit are rejected with 429 and never reach the
// store, protecting ingestion from a single runaway emitter.
//
// # Examples
//
//	router.Use(middleware.AuthMiddleware(provider))
//	router.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
//	    RequestsPerSecond: 100,
//	    Burst:             200,
//	}))
//
// # Thread Safety
//
// Thread-safe. The returned middleware can serve concurrent requests.
func RateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	limiters := newLimiterCache(cfg.MaxClients)
	newLimiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	return func(c *gin.Context) {
		limiter := limiters.fetch(clientKey(c), newLimiter)
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// clientKey picks the bucket key for a request: the authenticated
// client name when one exists, the source IP otherwise.
func clientKey(c *gin.Context) string {
	if info := GetAuthInfo(c); info != nil && info.ClientID != "" && info.ClientID != extensions.AnonymousClient {
		return info.ClientID
	}
	return c.ClientIP()
}

// limiterCache is a fixed-capacity LRU of per-client limiters. The
// bound keeps memory flat when traffic arrives from many distinct
// sources (scrapers, port scans, NAT churn).
type limiterCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // Front = most recent, Back = least recent
}

type limiterEntry struct {
	key     string
	limiter *rate.Limiter
}

func newLimiterCache(capacity int) *limiterCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &limiterCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// fetch returns the limiter for key, creating it on first sight and
// evicting the least recently seen client at capacity.
func (lc *limiterCache) fetch(key string, create func() *rate.Limiter) *rate.Limiter {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if elem, ok := lc.items[key]; ok {
		lc.order.MoveToFront(elem)
		return elem.Value.(*limiterEntry).limiter
	}

	if lc.order.Len() >= lc.capacity {
		if oldest := lc.order.Back(); oldest != nil {
			lc.order.Remove(oldest)
			delete(lc.items, oldest.Value.(*limiterEntry).key)
		}
	}

	limiter := create()
	lc.items[key] = lc.order.PushFront(&limiterEntry{key: key, limiter: limiter})
	return limiter
}

// len reports the number of tracked clients.
func (lc *limiterCache) len() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.order.Len()
}
