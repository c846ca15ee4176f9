package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/arsconsole/config"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Serializes(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "seats:F100")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocalLocker_IndependentNames(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "seats:A")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(ctx, "seats:B")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker()

	unlock, err := l.Lock(context.Background(), "seats:F1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "seats:F1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	unlock2, err := l.Lock(context.Background(), "seats:F1")
	require.NoError(t, err)
	unlock2()
}

func TestNewRedisLocker(t *testing.T) {
	l := NewRedisLocker(config.RedisConfig{Addr: "localhost:6379", LockTTLMillis: 100}, logger.Discard())
	assert.NotNil(t, l)
	assert.Equal(t, 100*time.Millisecond, l.ttl)
	assert.Equal(t, "ars:lock:seats:F1", lockKey("seats:F1"))
	assert.NoError(t, l.Close())
}
