// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedOrigins bounds the limiter map; it is reset when exceeded.
const maxTrackedOrigins = 10000

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a new limiter cache.
func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	if len(lc.limiters) >= maxTrackedOrigins {
		lc.limiters = make(map[K]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// OriginRateLimiter throttles requests per originating host.
type OriginRateLimiter struct {
	cache  *limiterCache[string]
	logger *slog.Logger
}

// NewOriginRateLimiter creates a limiter allowing rps requests per second
// with the given burst for each origin host. A non-positive rps disables it.
func NewOriginRateLimiter(rps float64, burst int, logger *slog.Logger) *OriginRateLimiter {
	if rps <= 0 {
		return &OriginRateLimiter{logger: logger}
	}
	if burst < 1 {
		burst = 1
	}
	return &OriginRateLimiter{
		cache:  newLimiterCache[string](rps, burst),
		logger: logger,
	}
}

// Allow reports whether host may make another request now.
func (rl *OriginRateLimiter) Allow(host string) bool {
	if rl == nil || rl.cache == nil {
		return true
	}
	return rl.cache.get(host).Allow()
}

// Middleware rejects requests over the limit with a JSON 429.
func (rl *OriginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := ClientIP(r)
		if !rl.Allow(host) {
			if rl.logger != nil {
				rl.logger.Warn("comment rate limit exceeded", "origin_host", host, "path", r.URL.Path)
			}
			WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
