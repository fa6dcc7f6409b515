package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
}

// RetryAfter returns how long a rejected client should wait. It is zero
// for admitted requests.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	if d := time.Until(r.ResetAt); d > 0 {
		return d
	}
	return 0
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Store keeps the admitted timestamps for each key.
type Store interface {
	// RecordIfAllowed drops timestamps at or before now-window, then records
	// now only if fewer than limit remain. It returns the count after the
	// decision and the oldest timestamp still in the window (now when empty).
	// Implementations must make the check and the insert atomic.
	RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (allowed bool, count int, oldest time.Time, err error)

	// Count returns how many timestamps fall in (now-window, now].
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)

	// Reset forgets key.
	Reset(ctx context.Context, key string) error
}
