package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{MaxRequests: 3, Window: 10 * time.Second})
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := rl.allow("10.0.0.1")
		assert.True(t, ok, "request %d should be allowed", i+1)
		now = now.Add(time.Second)
	}

	ok, retryAfter := rl.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 7*time.Second, retryAfter)

	// Other clients are independent.
	ok, _ = rl.allow("10.0.0.2")
	assert.True(t, ok)

	// The oldest request leaves the window.
	now = now.Add(7 * time.Second)
	ok, _ = rl.allow("10.0.0.1")
	assert.True(t, ok)
}

func TestRateLimiterMinimumRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{MaxRequests: 1, Window: 100 * time.Millisecond})
	rl.now = func() time.Time { return now }

	ok, _ := rl.allow("ip")
	assert.True(t, ok)
	ok, retryAfter := rl.allow("ip")
	assert.False(t, ok)
	assert.Equal(t, time.Second, retryAfter)
}

func TestRateLimiterDefaults(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig(), rl.config)
}

func TestRateLimiterCleanup(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{MaxRequests: 5, Window: time.Minute})
	rl.now = func() time.Time { return now }

	rl.allow("a")
	rl.allow("b")
	assert.Equal(t, 2, rl.tracked())

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	assert.Equal(t, 0, rl.tracked())
}

func TestExtractIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr with port", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"remote addr without port", "192.0.2.1", nil, "192.0.2.1"},
		{"forwarded for", "10.0.0.1:80", map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.7 "}, "198.51.100.7"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/api/run", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractIP(r))
		})
	}
}
