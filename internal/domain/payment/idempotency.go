package payment

import (
	"context"
	"time"
)

// IdempotencyStore deduplicates inbound requests keyed by a client-supplied
// idempotency token. It is request-level dedup only; durable dedup is the
// storage layer's uniqueness constraint on (provider, transaction id).
type IdempotencyStore interface {
	// MarkProcessed atomically records the key unless it was already seen
	// within the freshness window. It returns fresh=true when the key was
	// newly recorded, or fresh=false with the time the key was first seen.
	MarkProcessed(ctx context.Context, key string, window time.Duration) (fresh bool, firstSeen time.Time, err error)

	// Close releases any resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for request-level deduplication
type IdempotencyConfig struct {
	// FreshnessWindow is how long a previously seen key is still a duplicate
	FreshnessWindow time.Duration

	// MaxEntries is the in-process cache ceiling; exceeding it triggers a
	// sweep of entries older than the freshness window
	MaxEntries int
}

// DefaultIdempotencyConfig returns the default deduplication configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		FreshnessWindow: 15 * time.Minute,
		MaxEntries:      10000,
	}
}
