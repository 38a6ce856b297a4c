package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	window := 15 * time.Minute

	t.Run("fresh key is recorded", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(100)
		fresh, firstSeen, err := store.MarkProcessed(ctx, "key-1", window)
		require.NoError(t, err)
		assert.True(t, fresh)
		assert.False(t, firstSeen.IsZero())
	})

	t.Run("repeated key within window is a duplicate", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(100)

		fresh, first, err := store.MarkProcessed(ctx, "key-2", window)
		require.NoError(t, err)
		require.True(t, fresh)

		fresh, seen, err := store.MarkProcessed(ctx, "key-2", window)
		require.NoError(t, err)
		assert.False(t, fresh, "second delivery within the window must be a duplicate")
		assert.Equal(t, first, seen, "duplicate reports the original first-seen time")
	})

	t.Run("key is fresh again after the window elapses", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(100)
		base := time.Now()
		store.now = func() time.Time { return base }

		fresh, _, err := store.MarkProcessed(ctx, "key-3", window)
		require.NoError(t, err)
		require.True(t, fresh)

		store.now = func() time.Time { return base.Add(window + time.Second) }

		fresh, _, err = store.MarkProcessed(ctx, "key-3", window)
		require.NoError(t, err)
		assert.True(t, fresh, "key seen after the freshness window must be re-processed")
	})
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	window := 15 * time.Minute

	store := NewInMemoryIdempotencyStore(3)
	base := time.Now()
	store.now = func() time.Time { return base }

	// Two entries that will be stale by the time the sweep triggers
	_, _, err := store.MarkProcessed(ctx, "stale-1", window)
	require.NoError(t, err)
	_, _, err = store.MarkProcessed(ctx, "stale-2", window)
	require.NoError(t, err)

	// One entry recorded just inside the window
	store.now = func() time.Time { return base.Add(window - time.Minute) }
	_, _, err = store.MarkProcessed(ctx, "recent", window)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Size())

	// Exceeding the ceiling triggers the sweep on this access
	store.now = func() time.Time { return base.Add(window + time.Minute) }
	fresh, _, err := store.MarkProcessed(ctx, "trigger", window)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Stale entries are gone, in-window entries survive
	assert.Equal(t, 2, store.Size())

	fresh, _, err = store.MarkProcessed(ctx, "recent", window)
	require.NoError(t, err)
	assert.False(t, fresh, "entry still within the window must survive the sweep")
}

func TestInMemoryIdempotencyStore_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore(1000)

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	freshCount := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, _, err := store.MarkProcessed(ctx, "same-key", 15*time.Minute)
			require.NoError(t, err)
			if fresh {
				mu.Lock()
				freshCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, freshCount, "exactly one concurrent request may observe fresh")
}
