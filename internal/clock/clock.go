// Package clock provides the logical clock shared by every process of the tree.
//
// Each process starts its own local clock at zero. A parent hands its child
// the value of its logical clock at spawn time as the child's base offset, so
// that timestamps from the whole tree fall on one approximate time line. The
// approximation ignores clock-rate drift and the delay between spawning and
// the child's first reading.
package clock

import (
	"sync"
	"time"
)

// NowFunc returns the current instant. Readings must carry a monotonic component.
type NowFunc func() time.Time

// Clock is a base offset plus local elapsed time.
// It is safe for concurrent use.
type Clock struct {
	base  time.Duration
	start time.Time
	now   NowFunc

	mu   sync.Mutex
	last time.Duration
}

// New starts a clock whose readings begin at base.
func New(base time.Duration) *Clock {
	return NewWithSource(base, time.Now)
}

// NewWithSource starts a clock that reads time from now.
func NewWithSource(base time.Duration, now NowFunc) *Clock {
	if base < 0 {
		base = 0
	}
	return &Clock{base: base, start: now(), now: now}
}

// Base returns the inherited offset.
func (c *Clock) Base() time.Duration { return c.base }

// Elapsed returns the local time since the clock started.
func (c *Clock) Elapsed() time.Duration {
	return c.now().Sub(c.start)
}

// Now returns the logical time. Successive readings never decrease.
func (c *Clock) Now() time.Duration {
	t := c.base + c.Elapsed()

	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.last {
		t = c.last
	}
	c.last = t
	return t
}

// Millis returns the logical time in whole milliseconds.
func (c *Clock) Millis() int64 {
	return c.Now().Milliseconds()
}

// ChildBase returns the base offset to hand to a process spawned now.
func (c *Clock) ChildBase() time.Duration {
	return c.Now()
}
