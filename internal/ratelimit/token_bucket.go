package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucket keeps an x/time/rate limiter per key. Buckets idle for longer
// than idleTTL are evicted lazily.
type TokenBucket struct {
	mu        sync.Mutex
	buckets   map[string]*bucketEntry
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewTokenBucket refills perMinute tokens a minute up to burst.
func NewTokenBucket(perMinute, burst int, idleTTL time.Duration) (*TokenBucket, error) {
	if perMinute <= 0 || burst <= 0 {
		return nil, ErrInvalidLimit
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &TokenBucket{
		buckets: make(map[string]*bucketEntry),
		rate:    rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}, nil
}

// Allow takes one token from key's bucket.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.evictIdle(now)

	e, ok := tb.buckets[key]
	if !ok {
		e = &bucketEntry{limiter: rate.NewLimiter(tb.rate, tb.burst)}
		tb.buckets[key] = e
	}
	e.lastSeen = now

	allowed := e.limiter.AllowN(now, 1)
	tokens := e.limiter.TokensAt(now)

	res := &Result{
		Allowed:   allowed,
		Limit:     tb.burst,
		Remaining: max(0, int(tokens)),
		ResetAt:   now,
	}
	if tokens < 1 {
		wait := time.Duration((1 - tokens) / float64(tb.rate) * float64(time.Second))
		res.ResetAt = now.Add(wait)
	}
	return res, nil
}

// Len returns the number of live buckets.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

func (tb *TokenBucket) evictIdle(now time.Time) {
	if now.Sub(tb.lastSweep) < tb.idleTTL {
		return
	}
	tb.lastSweep = now
	for k, e := range tb.buckets {
		if now.Sub(e.lastSeen) >= tb.idleTTL {
			delete(tb.buckets, k)
		}
	}
}

var _ Limiter = (*TokenBucket)(nil)
