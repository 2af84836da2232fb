package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/storage"
)

// RateLimiter enforces a fixed-window per-caller request budget backed by
// Redis, so the budget holds across server instances.
type RateLimiter struct {
	cache             *storage.RedisCache
	requestsPerWindow int
	window            time.Duration
}

// NewRateLimiter creates a new rate limiter. A non-positive window falls
// back to one minute.
func NewRateLimiter(cache *storage.RedisCache, requestsPerWindow int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		cache:             cache,
		requestsPerWindow: requestsPerWindow,
		window:            window,
	}
}

// Allow records a request for the caller and reports whether it fits the
// current window. The count key expires with the window, so idle callers
// cost nothing.
func (rl *RateLimiter) Allow(r *http.Request) (bool, error) {
	caller := r.Header.Get("X-User-ID")
	if caller == "" {
		caller = r.RemoteAddr
	}

	// Bucket in nanoseconds so sub-second windows work too
	windowStart := time.Now().UnixNano() / rl.window.Nanoseconds()
	key := fmt.Sprintf("ratelimit:%s:%d", caller, windowStart)

	client := rl.cache.Client()
	count, err := client.Incr(r.Context(), key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		client.Expire(r.Context(), key, rl.window)
	}

	return count <= int64(rl.requestsPerWindow), nil
}

// RateLimitMiddleware creates a middleware that enforces rate limiting.
// A Redis failure lets the request through.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := rl.Allow(r)
			if err != nil {
				logging.FromContext(r.Context()).WithError(err).
					Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				respondError(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded,
					"Rate limit exceeded. Please try again later.", map[string]interface{}{
						"limit":  rl.requestsPerWindow,
						"window": rl.window.String(),
					})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
