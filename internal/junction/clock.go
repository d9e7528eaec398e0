package junction

import (
	"sync"
	"time"
)

// Clock stamps inserted_at values. Values must strictly increase for the
// lifetime of the clock.
//
// Implemented by WallClock (production) and testutil.DeterministicClock (tests).
type Clock interface {
	Next() int64
}

// WallClock returns Unix milliseconds, bumped by one whenever the wall clock
// has not advanced since the previous call. Values keep increasing across
// process restarts as long as the system clock does.
//
// Thread-safety: WallClock is safe for concurrent use via internal mutex.
type WallClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewWallClock creates a clock reading time.Now.
func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

// Next returns the next timestamp.
func (c *WallClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}
