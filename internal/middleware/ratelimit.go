package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/ui"
)

// RateLimiter is a sliding-window counter per key (client IP or user ID).
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}

	go rl.cleanupLoop()

	return rl
}

// Allow records a request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	_, ok := rl.allow(key, time.Now())
	return ok
}

// allow also returns how long until the oldest counted request leaves the window.
func (rl *RateLimiter) allow(key string, now time.Time) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.recent(key, now)
	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return recent[0].Add(rl.window).Sub(now), false
	}

	rl.requests[key] = append(recent, now)
	return 0, true
}

// recent returns key's requests still inside the window; callers hold mu.
func (rl *RateLimiter) recent(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	times := rl.requests[key]

	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.cleanup(time.Now())
	}
}

// cleanup forgets keys with no requests inside the window.
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key := range rl.requests {
		if len(rl.recent(key, now)) == 0 {
			delete(rl.requests, key)
		}
	}
}

// KeyFunc picks the bucket a request is counted in.
type KeyFunc func(r *http.Request) string

// ByClientIP counts requests per client address.
func ByClientIP(r *http.Request) string {
	return "ip:" + getClientIP(r)
}

// ByUser counts requests per signed-in user, falling back to the client address.
func ByUser(r *http.Request) string {
	if user := ctxkeys.User(r.Context()); user != nil {
		return "user:" + user.ID
	}
	return ByClientIP(r)
}

func RateLimit(limiter *RateLimiter, key KeyFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			k := key(r)

			retryAfter, ok := limiter.allow(k, time.Now())
			if !ok {
				slog.Warn("rate limit exceeded", "key", k, "path", r.URL.Path)
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				ui.Error(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}

			next(w, r)
		}
	}
}

// RateLimitAuth limits auth endpoints to 10 requests per 15 minutes per IP
func RateLimitAuth() func(http.HandlerFunc) http.HandlerFunc {
	return RateLimit(NewRateLimiter(10, 15*time.Minute), ByClientIP)
}

// RateLimitUploads limits media uploads to 120 per hour per user
func RateLimitUploads() func(http.HandlerFunc) http.HandlerFunc {
	return RateLimit(NewRateLimiter(120, time.Hour), ByUser)
}

// getClientIP extracts the client address, trusting the first X-Forwarded-For hop.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return strings.Trim(ip, "[]")
}
