package lock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisLocker(t *testing.T, opts RedisLockerOptions) *RedisBatchLocker {
	t.Helper()
	addr := os.Getenv("PHARMACY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PHARMACY_TEST_REDIS_ADDR not set, skipping Redis lock tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	opts.KeyPrefix = "pharmacy:test:" + uuid.NewString() + ":"
	l := NewRedisBatchLockerWithClient(client, opts, zap.NewNop())
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRedisLockerOptions_Defaults(t *testing.T) {
	o := RedisLockerOptions{}.withDefaults()
	assert.Equal(t, 30*time.Second, o.TTL)
	assert.Equal(t, 50, o.RetryCount)
	assert.Equal(t, 100*time.Millisecond, o.RetryBackoff)
	assert.Equal(t, defaultKeyPrefix, o.KeyPrefix)

	custom := RedisLockerOptions{TTL: time.Minute, RetryCount: 3, RetryBackoff: time.Second, KeyPrefix: "x:"}.withDefaults()
	assert.Equal(t, time.Minute, custom.TTL)
	assert.Equal(t, 3, custom.RetryCount)
	assert.Equal(t, "x:", custom.KeyPrefix)
}

func TestRedisBatchLocker_Key(t *testing.T) {
	l := NewRedisBatchLockerWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), RedisLockerOptions{}, zap.NewNop())
	defer l.Close()

	id := uuid.MustParse("6f1c2a8e-3b4d-4c5e-9f60-718293a4b5c6")
	assert.Equal(t, "pharmacy:lock:batch:6f1c2a8e-3b4d-4c5e-9f60-718293a4b5c6", l.Key(id))
}

func TestRedisBatchLocker_Exclusive(t *testing.T) {
	l := newTestRedisLocker(t, RedisLockerOptions{RetryBackoff: 5 * time.Millisecond, RetryCount: 500})
	batch := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), batch)
			require.NoError(t, err)
			v := counter
			time.Sleep(2 * time.Millisecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, counter)
}

func TestRedisBatchLocker_Timeout(t *testing.T) {
	l := newTestRedisLocker(t, RedisLockerOptions{RetryBackoff: time.Millisecond, RetryCount: 3})
	a, b := uuid.New(), uuid.New()

	unlockB, err := l.Lock(context.Background(), b)
	require.NoError(t, err)
	defer unlockB()

	_, err = l.Lock(context.Background(), a, b)
	assert.ErrorIs(t, err, ErrLockTimeout)

	// a was released when b failed
	unlockA, err := l.Lock(context.Background(), a)
	require.NoError(t, err)
	unlockA()
}
