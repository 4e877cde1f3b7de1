// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/olegiv/ocms-content/internal/cache"
)

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]Check{"database": h.checkDatabase(ctx)}
	if h.cache != nil {
		checks["cache"] = h.checkCache(ctx)
	}

	overall := "healthy"
	code := http.StatusOK
	for _, c := range checks {
		if c.Status != "healthy" {
			overall = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	WriteJSON(w, code, HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Normalized().Version,
		Checks:    checks,
	})
}

// checkDatabase verifies database connectivity.
func (h *Handler) checkDatabase(ctx context.Context) Check {
	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("database health check failed", "error", err)
		return Check{Status: "unhealthy", Message: "database unreachable"}
	}
	return Check{Status: "healthy", Latency: time.Since(start).String()}
}

// checkCache pings remote backends and reports hit statistics.
func (h *Handler) checkCache(ctx context.Context) Check {
	check := Check{Status: "healthy"}
	if p, ok := h.cache.(pinger); ok {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("cache health check failed", "error", err)
			return Check{Status: "unhealthy", Message: "cache unreachable"}
		}
		check.Latency = time.Since(start).String()
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		stats := sp.Stats()
		check.Stats = &stats
	}
	return check
}
