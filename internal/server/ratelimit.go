package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig holds rate limiting configuration for the control
// endpoints.
type RateLimitConfig struct {
	MaxRequests int           // Maximum requests per window (default: 30)
	Window      time.Duration // Sliding window length (default: 1 minute)
}

// DefaultRateLimitConfig returns the default rate limiting configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 30,
		Window:      time.Minute,
	}
}

// rateLimiter is a per-IP sliding window limiter.
type rateLimiter struct {
	mu     sync.Mutex
	config RateLimitConfig
	now    func() time.Time

	// requests holds the request times inside the window, oldest first.
	requests map[string][]time.Time
}

// newRateLimiter creates a limiter, filling zero fields with defaults.
func newRateLimiter(config RateLimitConfig) *rateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.MaxRequests <= 0 {
		config.MaxRequests = defaults.MaxRequests
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}

	return &rateLimiter{
		config:   config,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
}

// allow records a request from ip and reports whether it is within the
// limit. When it is not, retryAfter is how long until the oldest request
// leaves the window.
func (rl *rateLimiter) allow(ip string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := rl.prune(ip, now)

	if len(recent) >= rl.config.MaxRequests {
		retryAfter = recent[0].Add(rl.config.Window).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	rl.requests[ip] = append(recent, now)
	return true, 0
}

// prune drops requests older than the window and returns the rest.
func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	windowStart := now.Add(-rl.config.Window)
	timestamps := rl.requests[ip]
	i := 0
	for i < len(timestamps) && !timestamps[i].After(windowStart) {
		i++
	}
	recent := timestamps[i:]
	if len(recent) == 0 {
		delete(rl.requests, ip)
		return nil
	}
	rl.requests[ip] = recent
	return recent
}

// cleanup removes IPs with no requests inside the window.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip := range rl.requests {
		rl.prune(ip, now)
	}
}

// tracked returns the number of IPs with requests inside the window.
func (rl *rateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

// rateLimit rejects requests over the limit with 429 and a Retry-After
// header.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		ok, retryAfter := s.limiter.allow(ip)
		if !ok {
			s.log.Warn("rate limited", "ip", ip, "retry_after", retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractIP extracts the client IP from the request.
// It checks X-Forwarded-For and X-Real-IP headers first (for reverse proxy scenarios),
// then falls back to the remote address.
func extractIP(r *http.Request) string {
	// X-Forwarded-For can be "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		client, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(client)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
