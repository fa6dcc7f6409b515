package ratelimit

import (
	"context"
	"time"
)

// SlidingWindow admits at most limit requests per key in any window-long
// interval. Rejected requests are not recorded, so a client that keeps
// retrying is released as soon as its oldest admitted request ages out.
type SlidingWindow struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewSlidingWindow creates a new sliding window rate limiter.
func NewSlidingWindow(store Store, limit int, window time.Duration) (*SlidingWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &SlidingWindow{store: store, limit: limit, window: window, now: time.Now}, nil
}

// Limit returns the configured request budget per window.
func (sw *SlidingWindow) Limit() int { return sw.limit }

// Window returns the configured window length.
func (sw *SlidingWindow) Window() time.Duration { return sw.window }

// Allow records one request for key if the budget permits.
func (sw *SlidingWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := sw.now()
	allowed, count, oldest, err := sw.store.RecordIfAllowed(ctx, key, now, sw.window, sw.limit)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   allowed,
		Limit:     sw.limit,
		Remaining: max(0, sw.limit-count),
		ResetAt:   oldest.Add(sw.window),
	}, nil
}

// Status reports the current budget for key without consuming it.
func (sw *SlidingWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	now := sw.now()
	count, err := sw.store.Count(ctx, key, now, sw.window)
	if err != nil {
		return nil, err
	}
	return &Result{
		Allowed:   count < sw.limit,
		Limit:     sw.limit,
		Remaining: max(0, sw.limit-count),
		ResetAt:   now.Add(sw.window),
	}, nil
}

// Reset clears the history for key.
func (sw *SlidingWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return sw.store.Reset(ctx, key)
}

var _ Limiter = (*SlidingWindow)(nil)
