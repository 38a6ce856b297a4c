package cache

import (
	"context"
	"sync"
	"time"

	"github.com/neuropul/backend/internal/domain/payment"
)

// InMemoryIdempotencyStore implements payment.IdempotencyStore with a
// process-local map keyed by idempotency token.
//
// Eviction is a coarse O(n) sweep triggered when the entry count exceeds
// maxEntries, not a background timer. Webhook volume is low relative to the
// ceiling, so the sweep is rare and cheap.
type InMemoryIdempotencyStore struct {
	mu         sync.Mutex
	firstSeen  map[string]time.Time
	maxEntries int

	// now is overridable in tests
	now func() time.Time
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store.
// maxEntries <= 0 uses the default ceiling.
func NewInMemoryIdempotencyStore(maxEntries int) *InMemoryIdempotencyStore {
	if maxEntries <= 0 {
		maxEntries = payment.DefaultIdempotencyConfig().MaxEntries
	}
	return &InMemoryIdempotencyStore{
		firstSeen:  make(map[string]time.Time),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// MarkProcessed atomically checks and records the key under a single lock so
// two concurrent requests with the same key cannot both observe "fresh".
// A fresh key is recorded before the caller invokes downstream logic.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, window time.Duration) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if seen, exists := s.firstSeen[key]; exists {
		if now.Sub(seen) < window {
			return false, seen, nil
		}
		// Entry exists but the freshness window has elapsed; treat as fresh
	}

	s.firstSeen[key] = now

	if len(s.firstSeen) > s.maxEntries {
		s.sweep(now, window)
	}

	return true, now, nil
}

// sweep removes entries older than the freshness window. Caller holds the lock.
func (s *InMemoryIdempotencyStore) sweep(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	for key, seen := range s.firstSeen {
		if seen.Before(cutoff) {
			delete(s.firstSeen, key)
		}
	}
}

// Close releases resources. The in-memory store has none.
func (s *InMemoryIdempotencyStore) Close() error {
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.firstSeen)
}

// Ensure InMemoryIdempotencyStore implements payment.IdempotencyStore
var _ payment.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
