package lock

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ayat-booking/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLock(t *testing.T) (*SubmitLock, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewSubmitLock(client, 30*time.Second, logger.Discard()), mr
}

func TestAcquireRelease(t *testing.T) {
	l, _ := setupTestLock(t)
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "form-1", "attempt-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "form-1", "attempt-b")
	require.NoError(t, err)
	assert.False(t, ok, "second submit of the same form must be refused")

	inFlight, err := l.InFlight(ctx, "form-1")
	require.NoError(t, err)
	assert.True(t, inFlight)

	// A different owner cannot release it.
	require.NoError(t, l.Release(ctx, "form-1", "attempt-b"))
	inFlight, _ = l.InFlight(ctx, "form-1")
	assert.True(t, inFlight)

	require.NoError(t, l.Release(ctx, "form-1", "attempt-a"))
	inFlight, _ = l.InFlight(ctx, "form-1")
	assert.False(t, inFlight)

	ok, err = l.Acquire(ctx, "form-1", "attempt-c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockExpires(t *testing.T) {
	l, mr := setupTestLock(t)
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "form-1", "attempt-a")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err = l.Acquire(ctx, "form-1", "attempt-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConcurrentAcquireOnlyOneWins(t *testing.T) {
	l, _ := setupTestLock(t)

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := l.Acquire(context.Background(), "form-1", fmt.Sprintf("attempt-%d", n))
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
