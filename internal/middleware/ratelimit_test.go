// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
		{"forwarded first", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:1", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:1", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOriginRateLimiter(t *testing.T) {
	rl := NewOriginRateLimiter(0.001, 2, nil)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/comments", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("192.0.2.1:1000"); code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, code)
		}
	}
	if code := do("192.0.2.1:1001"); code != http.StatusTooManyRequests {
		t.Errorf("over burst: status = %d, want 429", code)
	}
	if code := do("192.0.2.2:1000"); code != http.StatusNoContent {
		t.Errorf("other origin: status = %d, want 204", code)
	}
}

func TestOriginRateLimiter_Disabled(t *testing.T) {
	rl := NewOriginRateLimiter(0, 0, nil)
	for i := 0; i < 100; i++ {
		if !rl.Allow("192.0.2.1") {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
	var nilLimiter *OriginRateLimiter
	if !nilLimiter.Allow("x") {
		t.Error("nil limiter should allow")
	}
}
