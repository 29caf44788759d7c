// Package middleware provides HTTP middleware for rate limiting and
// API protection.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"heartpet-recommender/internal/api/response"
)

// RateLimiter counts requests per client in fixed time buckets. Each
// client key holds a counter stamped with its bucket start; a request
// arriving in a later bucket resets the counter. Stale entries are
// evicted opportunistically on request arrival, so the limiter runs no
// background goroutine and an idle process does no work.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	buckets     map[string]*bucket
	lastSweep   time.Time
	sweepEvery  time.Duration
	maxStaleAge time.Duration
}

type bucket struct {
	count int
	start time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
// per client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:       limit,
		window:      window,
		buckets:     make(map[string]*bucket),
		lastSweep:   time.Now(),
		sweepEvery:  window,
		maxStaleAge: 5 * window,
	}
}

// Allow records a request for key and reports whether it is within
// the limit.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.maybeSweep(now)

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.start) > rl.window {
		b = &bucket{start: now}
		rl.buckets[key] = b
	}
	b.count++
	return b.count <= rl.limit
}

// maybeSweep drops entries whose bucket expired long ago. Called with
// the lock held, at most once per window.
func (rl *RateLimiter) maybeSweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.sweepEvery {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.start) > rl.maxStaleAge {
			delete(rl.buckets, key)
		}
	}
}

// Handler wraps an http.Handler with per-client rate limiting keyed
// by IP.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			response.WriteRateLimited(w, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, honoring X-Forwarded-For and
// X-Real-IP from a fronting proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
