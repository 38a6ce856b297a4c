package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/neuropul/backend/internal/infrastructure/config"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	redisConfig        config.RedisConfig
	maxEntries         int
	logger             *zap.Logger
	requireSharedStore bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithMaxEntries sets the local cache entry ceiling
func WithMaxEntries(n int) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.maxEntries = n
	}
}

// WithRequireSharedStore makes Redis mandatory: factory creation fails when
// Redis is unreachable instead of degrading to process-local dedup
func WithRequireSharedStore(require bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.requireSharedStore = require
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig: cfg,
		maxEntries:  payment.DefaultIdempotencyConfig().MaxEntries,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore builds the tiered store: process-local L1 plus a Redis L2 when
// available. Without Redis the store is L1-only (two instances can then each
// independently accept the "same" duplicate; storage-level dedup still holds).
func (f *IdempotencyStoreFactory) CreateStore() (payment.IdempotencyStore, error) {
	local := NewInMemoryIdempotencyStore(f.maxEntries)

	shared, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		if f.requireSharedStore {
			return nil, fmt.Errorf("Redis required for shared idempotency but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to process-local idempotency store. "+
			"Duplicate webhooks may be accepted by other instances.",
			zap.Error(err),
		)
		return NewTieredIdempotencyStore(local, nil, f.logger), nil
	}

	f.logger.Info("using tiered idempotency store with Redis")
	return NewTieredIdempotencyStore(local, shared, f.logger), nil
}
