package handlers

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tnp-portal/apiserver/internal/apperr"
)

// rateLimitScript counts hits in a fixed window, arming the expiry on
// the first hit so stale keys clean themselves up.
var rateLimitScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter throttles requests per client IP using a Redis-backed
// fixed window. Redis outages fail open so auth never hard-depends on
// the cache.
type RateLimiter struct {
	limit  int
	window time.Duration
	prefix string

	// take counts one hit against the key and returns the running
	// total for the current window. Nil disables throttling.
	take func(ctx context.Context, key string) (int, error)
}

func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		limit:  limit,
		window: window,
		prefix: prefix,
	}
	if client != nil {
		l.take = func(ctx context.Context, key string) (int, error) {
			return rateLimitScript.Run(ctx, client, []string{key}, window.Milliseconds()).Int()
		}
	}
	return l
}

// Middleware enforces the limit. A limiter without a counter, as built
// from a nil client, disables throttling.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.take == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", l.prefix, clientIP(r))
		count, err := l.take(r.Context(), key)
		if err != nil {
			log.Printf("rate limiter unavailable: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count > l.limit {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorEnvelope{
				Success: false,
				Error: errorBody{
					Message:   "too many requests",
					Code:      apperr.Code("RATE_LIMITED"),
					Timestamp: time.Now().UTC(),
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
