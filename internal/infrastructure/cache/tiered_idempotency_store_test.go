package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockIdempotencyStore is a mock implementation of payment.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, window time.Duration) (bool, time.Time, error) {
	args := m.Called(ctx, key, window)
	return args.Bool(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestTieredIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	window := 15 * time.Minute

	t.Run("local duplicate short-circuits without consulting shared tier", func(t *testing.T) {
		shared := new(MockIdempotencyStore)
		local := NewInMemoryIdempotencyStore(100)
		store := NewTieredIdempotencyStore(local, shared, zap.NewNop())

		shared.On("MarkProcessed", ctx, "key", window).Return(true, time.Now(), nil).Once()

		fresh, _, err := store.MarkProcessed(ctx, "key", window)
		require.NoError(t, err)
		require.True(t, fresh)

		fresh, _, err = store.MarkProcessed(ctx, "key", window)
		require.NoError(t, err)
		assert.False(t, fresh)

		shared.AssertNumberOfCalls(t, "MarkProcessed", 1)
	})

	t.Run("shared duplicate wins over local fresh", func(t *testing.T) {
		firstSeen := time.Now().Add(-time.Minute)
		shared := new(MockIdempotencyStore)
		shared.On("MarkProcessed", ctx, "key", window).Return(false, firstSeen, nil)

		store := NewTieredIdempotencyStore(NewInMemoryIdempotencyStore(100), shared, zap.NewNop())

		fresh, seen, err := store.MarkProcessed(ctx, "key", window)
		require.NoError(t, err)
		assert.False(t, fresh, "another instance saw the key first")
		assert.Equal(t, firstSeen, seen)
	})

	t.Run("shared tier failure degrades to local result", func(t *testing.T) {
		shared := new(MockIdempotencyStore)
		shared.On("MarkProcessed", ctx, "key", window).
			Return(false, time.Time{}, errors.New("redis down"))

		store := NewTieredIdempotencyStore(NewInMemoryIdempotencyStore(100), shared, zap.NewNop())

		fresh, _, err := store.MarkProcessed(ctx, "key", window)
		require.NoError(t, err, "shared tier failure must not fail the request")
		assert.True(t, fresh)
	})

	t.Run("nil shared tier is local-only", func(t *testing.T) {
		store := NewTieredIdempotencyStore(NewInMemoryIdempotencyStore(100), nil, nil)

		fresh, _, err := store.MarkProcessed(ctx, "key", window)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, _, err = store.MarkProcessed(ctx, "key", window)
		require.NoError(t, err)
		assert.False(t, fresh)
	})
}
