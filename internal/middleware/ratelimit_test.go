package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	handler := RateLimiter(t.Context(), RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
	})(okHandler())

	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	handler := RateLimiter(t.Context(), RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
	})(okHandler())

	// Exhaust the burst
	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.InDelta(t, float64(429), body["code"], 0.001)
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	handler := RateLimiter(t.Context(), RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
	})(okHandler())

	serve := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for range 2 {
		require.Equal(t, http.StatusOK, serve("10.0.0.1:1234"))
	}
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1234"), "different client should not be affected by Client A's rate limit")
}

func TestClientLimiters_Sweep(t *testing.T) {
	c := &clientLimiters{cfg: RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, clients: map[string]*clientLimiter{}}
	now := time.Now()
	c.get("10.0.0.1", now.Add(-2*clientIdleTTL))
	c.get("10.0.0.2", now)

	c.sweep(now)

	assert.Len(t, c.clients, 1)
	assert.Contains(t, c.clients, "10.0.0.2")
}

func TestRateLimiter_SweeperStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	RateLimiter(ctx, RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	cancel()
}

func TestClientIP_ExtractsHost(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{name: "IPv4 with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "IPv6 with port", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "no port", remoteAddr: "203.0.113.50", want: "203.0.113.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("X-Forwarded-For", "198.51.100.7")
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
