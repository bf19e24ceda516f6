package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/store"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter implements sliding window rate limiting keyed by client
// IP, backed by sorted sets in the store. Only the credential and
// write-heavy endpoints are limited; reads pass through.
type RateLimiter struct {
	store  *store.Store
	logger zerolog.Logger
	limits map[string]RateLimit
}

// NewRateLimiter creates a rate limiter with the default per-endpoint
// limits.
func NewRateLimiter(st *store.Store, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		store:  st,
		logger: logger,
		limits: map[string]RateLimit{
			"POST /register": {10, time.Hour},
			"POST /login":    {20, 15 * time.Minute},
			"POST /messages": {60, time.Minute},
			"POST /chats":    {20, time.Hour},
			"POST /upload":   {20, time.Minute},
		},
	}
}

// Middleware returns the rate limiting middleware. When the store is
// unconfigured the limiter lets everything through; the handlers will
// surface the unconfigured state themselves.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, ok := rl.limits[r.Method+" "+r.URL.Path]
		if !ok || !rl.store.Configured() {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:ip:%s:%s", RealIP(r), r.URL.Path)
		allowed, remaining, resetAt := rl.checkAndIncrement(r.Context(), key, limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())))
			rl.logger.Warn().
				Str("ip", RealIP(r)).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkAndIncrement records the request in a per-key sorted set scored
// by time and counts the entries still inside the window. Failures are
// treated as allowed: rate limiting is protective, not load-bearing.
func (rl *RateLimiter) checkAndIncrement(ctx context.Context, key string, limit RateLimit) (bool, int, time.Time) {
	now := time.Now()
	windowStart := now.Add(-limit.Window)

	if err := rl.store.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", windowStart.UnixMilli())); err != nil {
		return true, limit.Requests, now.Add(limit.Window)
	}
	count, err := rl.store.ZCard(ctx, key)
	if err != nil {
		return true, limit.Requests, now.Add(limit.Window)
	}
	if err := rl.store.ZAdd(ctx, key, float64(now.UnixMilli()), fmt.Sprintf("%d", now.UnixNano())); err != nil {
		return true, limit.Requests, now.Add(limit.Window)
	}
	if err := rl.store.Expire(ctx, key, limit.Window*2); err != nil {
		rl.logger.Warn().Err(err).Str("key", key).Msg("rate limit expire failed")
	}

	remaining := limit.Requests - int(count) - 1
	if remaining < 0 {
		remaining = 0
	}
	return count < int64(limit.Requests), remaining, now.Add(limit.Window)
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
