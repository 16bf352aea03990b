package docwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nglaszik/docwatch/internal/domain"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inside := map[string]int{}
	for i := 0; i < 50; i++ {
		key := []string{"a", "b"}[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(key)
			defer unlock()

			mu.Lock()
			inside[key]++
			n := inside[key]
			mu.Unlock()
			assert.Equal(t, 1, n, "two holders of key %s", key)

			time.Sleep(time.Millisecond)
			mu.Lock()
			inside[key]--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, k.size(), "released keys are forgotten")
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	transient := &domain.TransientStorageError{Op: "test", Err: errors.New("boom")}

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, testRetry(), testLogger(), "op", func() error {
			calls++
			return domain.NewNotFound("node", "x")
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("transient errors are retried up to the limit", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, testRetry(), testLogger(), "op", func() error {
			calls++
			return transient
		})
		assert.ErrorIs(t, err, domain.ErrTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("recovers after a transient failure", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, testRetry(), testLogger(), "op", func() error {
			calls++
			if calls == 1 {
				return transient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := withRetry(cctx, RetryPolicy{MaxAttempts: 5, InitialInterval: time.Second}, testLogger(), "op", func() error {
			calls++
			return transient
		})
		assert.Error(t, err)
		assert.LessOrEqual(t, calls, 1)
	})
}
