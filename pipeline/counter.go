package pipeline

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Counter is the in-flight frame counter. It is the only pipeline state
// mutated from several goroutines without going through the scheduler, so
// every operation is a single atomic compare-and-swap loop.
//
// The value stays in [0, ceiling]: TryAcquire refuses at the ceiling and
// Release refuses at zero.
type Counter struct {
	n       atomic.Int64
	ceiling int64
}

// NewCounter returns a counter admitting at most ceiling frames.
func NewCounter(ceiling int) *Counter {
	return &Counter{ceiling: int64(ceiling)}
}

// TryAcquire increments the counter unless it is at the ceiling.
func (c *Counter) TryAcquire() bool {
	for {
		cur := c.n.Load()
		if cur >= c.ceiling {
			return false
		}
		if c.n.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Release decrements the counter. An unmatched Release is logged and
// ignored.
func (c *Counter) Release() {
	for {
		cur := c.n.Load()
		if cur <= 0 {
			logrus.WithFields(logrus.Fields{
				"function": "Counter.Release",
			}).Error("In-flight counter released below zero")
			return
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Load returns the current value.
func (c *Counter) Load() int {
	return int(c.n.Load())
}

// Ceiling returns the admission limit.
func (c *Counter) Ceiling() int {
	return int(c.ceiling)
}
