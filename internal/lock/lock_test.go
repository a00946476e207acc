// internal/lock/lock_test.go
package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func assertMutualExclusion(t *testing.T, l Locker) {
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "job-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&maxInFlight)
				if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight)
}

// ==========================
// KeyedMutex Tests
// ==========================

func TestKeyedMutex_MutualExclusion(t *testing.T) {
	assertMutualExclusion(t, NewKeyedMutex())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	unlockA, err := m.Lock(context.Background(), "job-a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "job-b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_HonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "job-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "job-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, m.Len())
}

// ==========================
// RedisLocker Tests
// ==========================

func TestRedisLocker_MutualExclusion(t *testing.T) {
	_, client := setupRedis(t)
	assertMutualExclusion(t, NewRedisLocker(client, time.Minute, time.Millisecond, logger.NewTestLogger(t)))
}

func TestRedisLocker_ReleaseDeletesKey(t *testing.T) {
	mr, client := setupRedis(t)
	l := NewRedisLocker(client, time.Minute, time.Millisecond, logger.NewTestLogger(t))

	unlock, err := l.Lock(context.Background(), "job-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(Key("job-1")))
	assert.Equal(t, time.Minute, mr.TTL(Key("job-1")))

	unlock()
	assert.False(t, mr.Exists(Key("job-1")))
}

func TestRedisLocker_DoesNotReleaseForeignToken(t *testing.T) {
	mr, client := setupRedis(t)
	l := NewRedisLocker(client, time.Minute, time.Millisecond, logger.NewTestLogger(t))

	unlock, err := l.Lock(context.Background(), "job-1")
	require.NoError(t, err)

	// another holder took over after expiry
	require.NoError(t, mr.Set(Key("job-1"), "someone-else"))
	unlock()

	got, err := mr.Get(Key("job-1"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_TimesOut(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set(Key("job-1"), "held"))
	l := NewRedisLocker(client, time.Minute, 5*time.Millisecond, logger.NewTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := l.Lock(ctx, "job-1")

	assert.True(t, errors.Is(err, apperrors.ErrLockAcquireFailed))
}

// ==========================
// Chain Tests
// ==========================

type failingLocker struct{ err error }

func (f failingLocker) Lock(context.Context, string) (Unlock, error) { return nil, f.err }

func TestChain_ReleasesHeldLocksOnFailure(t *testing.T) {
	local := NewKeyedMutex()
	chain := Chain{local, failingLocker{err: errors.New("redis down")}}

	_, err := chain.Lock(context.Background(), "job-1")
	assert.EqualError(t, err, "redis down")
	assert.Equal(t, 0, local.Len())
}

func TestChain_LocalThenRedis(t *testing.T) {
	mr, client := setupRedis(t)
	local := NewKeyedMutex()
	chain := Chain{local, NewRedisLocker(client, time.Minute, time.Millisecond, logger.NewTestLogger(t))}

	unlock, err := chain.Lock(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 1, local.Len())
	assert.True(t, mr.Exists(Key("job-1")))

	unlock()
	assert.Equal(t, 0, local.Len())
	assert.False(t, mr.Exists(Key("job-1")))
}
