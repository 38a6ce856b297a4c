package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neuropul/backend/internal/domain/payment"
)

// RedisIdempotencyStore implements payment.IdempotencyStore using Redis.
// It is suitable for horizontally scaled deployments where multiple
// instances must agree on which idempotency keys have been seen.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore creates a new Redis-based idempotency store
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: "webhook:idempotency:",
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "webhook:idempotency:"
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records the key with SETNX so the check-and-set is a single
// atomic operation. The value is the first-seen timestamp; on a duplicate it
// is read back so callers can report when the original delivery arrived.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, window time.Duration) (bool, time.Time, error) {
	redisKey := s.keyPrefix + key
	now := time.Now()

	set, err := s.client.SetNX(ctx, redisKey, now.Format(time.RFC3339Nano), window).Result()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to mark key as processed: %w", err)
	}
	if set {
		return true, now, nil
	}

	raw, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		// The key expired between SETNX and GET; treat the original
		// first-seen time as unknown rather than failing the request.
		if err == redis.Nil {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("failed to read first-seen time: %w", err)
	}

	firstSeen, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return false, time.Time{}, nil
	}

	return false, firstSeen, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements payment.IdempotencyStore
var _ payment.IdempotencyStore = (*RedisIdempotencyStore)(nil)
