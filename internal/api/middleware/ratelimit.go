package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/ratelimit"
)

// RateLimitResponse is the body of a 429 response.
type RateLimitResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc  func(r *http.Request) string
	skip     func(r *http.Request) bool
	failOpen bool
}

// WithFailOpen admits requests when the limiter backend errors. Without it
// a backend error yields 503.
func WithFailOpen(on bool) RateLimitOption {
	return func(c *rateLimitConfig) { c.failOpen = on }
}

// WithKeyFunc replaces the client IP key.
func WithKeyFunc(fn func(r *http.Request) string) RateLimitOption {
	return func(c *rateLimitConfig) { c.keyFunc = fn }
}

// WithSkip exempts requests for which fn returns true.
func WithSkip(fn func(r *http.Request) bool) RateLimitOption {
	return func(c *rateLimitConfig) { c.skip = fn }
}

// IsHealthPath reports whether path is a health check endpoint.
func IsHealthPath(path string) bool {
	return path == "/health" || path == "/api/health"
}

// RateLimit limits each client to what limiter allows. Health checks are
// skipped unless WithSkip replaces that rule. limitPerMinute is only used in the 429 message.
func RateLimit(limiter ratelimit.Limiter, limitPerMinute int, opts ...RateLimitOption) func(http.Handler) http.Handler {
	cfg := rateLimitConfig{
		keyFunc: clientHost,
		skip:    func(r *http.Request) bool { return IsHealthPath(r.URL.Path) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	detail := fmt.Sprintf("Maximum %d requests per minute", limitPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip != nil && cfg.skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			key := cfg.keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log := logger.FromContextOrDefault(r.Context(), slog.Default())
				if cfg.failOpen {
					log.Warn("rate limiter unavailable, admitting request", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
					"Rate limiter unavailable", err)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(result.RetryAfter().Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("rate limit exceeded",
					"client", key, "limit", result.Limit)
				shared.RespondWithJSON(w, r, http.StatusTooManyRequests, RateLimitResponse{
					Error:  "Rate limit exceeded",
					Detail: detail,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
