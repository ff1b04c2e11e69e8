package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBatchLocker_Exclusive(t *testing.T) {
	locker := NewMemoryBatchLocker()
	batch := uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), batch)
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locker.Len(), "entries are dropped once released")
}

func TestMemoryBatchLocker_OverlappingSetsDoNotDeadlock(t *testing.T) {
	locker := NewMemoryBatchLocker()
	a, b := uuid.New(), uuid.New()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(context.Background(), a, b)
				if err == nil {
					unlock()
				}
			}()
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(context.Background(), b, a)
				if err == nil {
					unlock()
				}
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("locking overlapping batch sets deadlocked")
	}
}

func TestMemoryBatchLocker_ContextCancelled(t *testing.T) {
	locker := NewMemoryBatchLocker()
	a, b := uuid.New(), uuid.New()

	unlockB, err := locker.Lock(context.Background(), b)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, a, b)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a must not stay held after the failed attempt
	unlockA, err := locker.Lock(context.Background(), a)
	require.NoError(t, err)
	unlockA()
	unlockB()
	assert.Equal(t, 0, locker.Len())
}

func TestMemoryBatchLocker_UnlockIsIdempotent(t *testing.T) {
	locker := NewMemoryBatchLocker()
	batch := uuid.New()

	unlock, err := locker.Lock(context.Background(), batch)
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = locker.Lock(context.Background(), batch)
	require.NoError(t, err)
	unlock()
}

func TestMemoryBatchLocker_DuplicateIDs(t *testing.T) {
	locker := NewMemoryBatchLocker()
	batch := uuid.New()

	unlock, err := locker.Lock(context.Background(), batch, batch)
	require.NoError(t, err, "a batch listed twice is locked once")
	unlock()
}
