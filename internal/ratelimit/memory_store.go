package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowLog struct {
	stamps []time.Time
	window time.Duration
}

// prune drops timestamps at or before now-window. Stamps are appended in
// call order so the slice is sorted unless the clock went backwards.
func (l *windowLog) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// MemoryStore is a process-local Store guarded by a single mutex.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string]*windowLog

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store. A positive sweepInterval starts a
// goroutine that removes keys with no timestamps left in their window;
// call Close to stop it.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		logs: make(map[string]*windowLog),
		stop: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *MemoryStore) RecordIfAllowed(
	ctx context.Context,
	key string,
	now time.Time,
	window time.Duration,
	limit int,
) (bool, int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[key]
	if !ok {
		l = &windowLog{}
		s.logs[key] = l
	}
	l.window = window
	l.prune(now, window)

	allowed := len(l.stamps) < limit
	if allowed {
		l.stamps = append(l.stamps, now)
	}

	oldest := now
	if len(l.stamps) > 0 {
		oldest = l.stamps[0]
	}
	return allowed, len(l.stamps), oldest, nil
}

func (s *MemoryStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[key]
	if !ok {
		return 0, nil
	}
	l.prune(now, window)
	return len(l.stamps), nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, key)
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// Sweep prunes every key and drops the ones left empty.
func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, l := range s.logs {
		l.prune(now, l.window)
		if len(l.stamps) == 0 {
			delete(s.logs, key)
		}
	}
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

var _ Store = (*MemoryStore)(nil)
