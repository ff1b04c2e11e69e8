// Package lock provides per-batch mutual exclusion for stock movements.
package lock

import (
	"context"
	"sync"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/google/uuid"
)

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryBatchLocker serializes stock movements per batch inside one process.
// Entries are reference counted and dropped when nobody holds or waits.
type MemoryBatchLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
}

// NewMemoryBatchLocker creates an in-process locker
func NewMemoryBatchLocker() *MemoryBatchLocker {
	return &MemoryBatchLocker{entries: make(map[uuid.UUID]*memoryEntry)}
}

// Lock acquires every batch in sorted order, waiting until each is free or
// ctx is done. On failure nothing stays locked.
func (l *MemoryBatchLocker) Lock(ctx context.Context, batchIDs ...uuid.UUID) (func(), error) {
	ids := appshared.SortedUnique(batchIDs)
	held := make([]uuid.UUID, 0, len(ids))

	for _, id := range ids {
		e := l.acquire(id)
		select {
		case e.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.release(id, false)
			l.unlockAll(held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlockAll(held) })
	}, nil
}

func (l *MemoryBatchLocker) unlockAll(held []uuid.UUID) {
	for i := len(held) - 1; i >= 0; i-- {
		l.release(held[i], true)
	}
}

// acquire registers interest in id and returns its entry
func (l *MemoryBatchLocker) acquire(id uuid.UUID) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	return e
}

// release drops interest in id, freeing the slot if it was held
func (l *MemoryBatchLocker) release(id uuid.UUID, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return
	}
	if held {
		<-e.sem
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

// Len returns the number of batches currently held or waited on
func (l *MemoryBatchLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

var _ appshared.BatchLocker = (*MemoryBatchLocker)(nil)
