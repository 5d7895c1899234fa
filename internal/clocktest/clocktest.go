// Package clocktest provides a clock for tests that run blocking code,
// such as homing, in simulated time on the calling goroutine.
package clocktest

import (
	"sync"
	"time"
)

// Step is the resolution at which Advance moves time.
const Step = time.Millisecond

// Clock is a manually advanced clock. Unlike clock.Mock, After does not
// wait for another goroutine to move time: it advances the clock by d
// itself, calling OnStep after every Step, and returns a fired channel.
type Clock struct {
	mu  sync.Mutex
	now time.Time

	// OnStep, if set, is called after each Step of simulated time without
	// the clock's lock held.
	OnStep func(now time.Time)
}

func New() *Clock {
	return &Clock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d in increments of Step.
func (c *Clock) Advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += Step {
		step := Step
		if d-elapsed < step {
			step = d - elapsed
		}
		c.mu.Lock()
		c.now = c.now.Add(step)
		now := c.now
		c.mu.Unlock()
		if c.OnStep != nil {
			c.OnStep(now)
		}
	}
}

func (c *Clock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}
