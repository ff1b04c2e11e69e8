package testutil

import (
	"sync"
	"time"
)

// TickingClock returns a strictly increasing time on every call, starting at
// Start. Ledger entries posted through it keep a stable order.
type TickingClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewTickingClock creates a clock that advances by one second per call
func NewTickingClock(start time.Time) *TickingClock {
	return &TickingClock{now: start.UTC(), Step: time.Second}
}

// Now advances the clock and returns the new time
func (c *TickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.Step)
	return c.now
}

// Peek returns the current time without advancing
func (c *TickingClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *TickingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
