package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "other IPs have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "one token per second at 60/min")
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	now = now.Add(5 * time.Minute)
	rl.Allow("2.2.2.2")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.Evict(10*time.Minute))
	assert.Len(t, rl.limiters, 1)
}

func TestRateLimitMiddlewareRejectsWithJSON(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	calls := 0
	handler := RateLimit(rl, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/slots", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4444"
	assert.Equal(t, "192.168.1.9", clientIP(req))

	req.Header.Set("X-Real-Ip", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
