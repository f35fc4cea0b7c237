package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrFillFillsOnce(t *testing.T) {
	c := New()
	calls := 0

	for i := 0; i < 3; i++ {
		v, err := c.GetOrFill(context.Background(), "k", func(ctx context.Context) (any, error) {
			calls++
			return "value", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrFillDedupesConcurrentMisses(t *testing.T) {
	c := New()
	var calls atomic.Int64
	release := make(chan struct{})

	const goroutines = 10
	var wg sync.WaitGroup
	results := make([]any, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrFill(context.Background(), "k", func(ctx context.Context) (any, error) {
				calls.Add(1)
				<-release
				return "value", nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent misses must share one fill")
	for _, v := range results {
		assert.Equal(t, "value", v)
	}
}

func TestGetOrFillDoesNotCacheErrors(t *testing.T) {
	c := New()
	calls := 0

	_, err := c.GetOrFill(context.Background(), "k", func(ctx context.Context) (any, error) {
		calls++
		return nil, assert.AnError
	})
	require.Error(t, err)

	v, err := c.GetOrFill(context.Background(), "k", func(ctx context.Context) (any, error) {
		calls++
		return "value", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 2, calls)
}

func TestClear(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.Len())

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
