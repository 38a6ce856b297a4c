package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neuropul/backend/internal/domain/payment"
)

// TieredIdempotencyStore layers the process-local store (L1) over a shared
// store (L2, typically Redis). The L1 short-circuits hot retries without a
// network round trip; the L2 makes dedup consistent across instances.
//
// When the L2 fails, the store degrades to L1-only behavior and logs the
// failure: a webhook processed twice is recoverable (storage-level dedup
// still holds), a webhook rejected outright is not.
type TieredIdempotencyStore struct {
	local  *InMemoryIdempotencyStore
	shared payment.IdempotencyStore
	logger *zap.Logger
}

// NewTieredIdempotencyStore creates a tiered store. shared may be nil, in
// which case only the local tier is consulted.
func NewTieredIdempotencyStore(local *InMemoryIdempotencyStore, shared payment.IdempotencyStore, logger *zap.Logger) *TieredIdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredIdempotencyStore{
		local:  local,
		shared: shared,
		logger: logger,
	}
}

// MarkProcessed consults the local tier first, then the shared tier.
// Either tier reporting a duplicate makes the request a duplicate.
func (s *TieredIdempotencyStore) MarkProcessed(ctx context.Context, key string, window time.Duration) (bool, time.Time, error) {
	fresh, firstSeen, err := s.local.MarkProcessed(ctx, key, window)
	if err != nil {
		return false, time.Time{}, err
	}
	if !fresh {
		return false, firstSeen, nil
	}

	if s.shared == nil {
		return true, firstSeen, nil
	}

	sharedFresh, sharedFirstSeen, err := s.shared.MarkProcessed(ctx, key, window)
	if err != nil {
		s.logger.Warn("shared idempotency store unavailable, using local result",
			zap.Error(err),
		)
		return true, firstSeen, nil
	}
	if !sharedFresh {
		// Another instance saw this key first
		return false, sharedFirstSeen, nil
	}

	return true, firstSeen, nil
}

// SharedTierActive reports whether a shared tier is configured
func (s *TieredIdempotencyStore) SharedTierActive() bool {
	return s.shared != nil
}

// Close closes both tiers
func (s *TieredIdempotencyStore) Close() error {
	if err := s.local.Close(); err != nil {
		return err
	}
	if s.shared != nil {
		return s.shared.Close()
	}
	return nil
}

// Ensure TieredIdempotencyStore implements payment.IdempotencyStore
var _ payment.IdempotencyStore = (*TieredIdempotencyStore)(nil)
