package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store keeps the sliding window of hits per key. Hit records a hit when the
// key is below maxHits and reports how long the caller should wait otherwise.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, maxHits int) (bool, time.Duration, error)
}

type Limiter struct {
	store   Store
	window  time.Duration
	maxHits int
}

// NewLimiter returns a limiter backed by process memory
func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return NewLimiterWithStore(NewMemoryStore(), window, maxHits)
}

func NewLimiterWithStore(store Store, window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		store:   store,
		window:  window,
		maxHits: maxHits,
	}
}

func (l *Limiter) Allow(key string) bool {
	allowed, _, err := l.AllowContext(context.Background(), key)
	return allowed && err == nil
}

// AllowContext records a hit for key. When the hit is rejected the returned
// duration is the time until the oldest hit leaves the window.
func (l *Limiter) AllowContext(ctx context.Context, key string) (bool, time.Duration, error) {
	return l.store.Hit(ctx, key, time.Now(), l.window, l.maxHits)
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

func (l *Limiter) MaxHits() int {
	return l.maxHits
}

// MemoryStore keeps hit timestamps per key in process memory. Keys whose
// hits have all left the window are swept at most once per window.
type MemoryStore struct {
	mu        sync.Mutex
	limits    map[string][]time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		limits: make(map[string][]time.Time),
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration, maxHits int) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowStart := now.Add(-window)

	if now.Sub(s.lastSweep) >= window {
		s.sweep(windowStart)
		s.lastSweep = now
	}

	// Clean old entries
	if hits, exists := s.limits[key]; exists {
		valid := hits[:0]
		for _, hit := range hits {
			if hit.After(windowStart) {
				valid = append(valid, hit)
			}
		}
		if len(valid) == 0 {
			delete(s.limits, key)
		} else {
			s.limits[key] = valid
		}
	}

	// Check current count
	if hits := s.limits[key]; len(hits) >= maxHits {
		if len(hits) == 0 {
			return false, window, nil
		}
		return false, hits[0].Add(window).Sub(now), nil
	}

	// Add new hit
	s.limits[key] = append(s.limits[key], now)
	return true, 0, nil
}

// sweep drops every key whose newest hit is outside the window.
func (s *MemoryStore) sweep(windowStart time.Time) {
	for key, hits := range s.limits {
		if len(hits) == 0 || !hits[len(hits)-1].After(windowStart) {
			delete(s.limits, key)
		}
	}
}
