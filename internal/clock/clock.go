// Package clock provides the time source that paces sampling and node
// cycles. Real drives the hardware cadence; Manual lets tests run whole
// acquisition windows without real delay.
package clock

import (
	"sync"
	"time"
)

// Clock is the tick source used by the sampler and the node loop
type Clock interface {
	Now() time.Time
	// SleepUntil blocks until Now() is at or after t. It returns
	// immediately when t has already passed.
	SleepUntil(t time.Time)
	Sleep(d time.Duration)
}

// DefaultSpinThreshold is the remaining wait below which Real spins
// instead of yielding to the scheduler.
const DefaultSpinThreshold = 2 * time.Millisecond

// Real is the wall clock. Waits shorter than SpinThreshold are spent
// polling time.Now, which is what keeps a 125µs sample interval accurate.
type Real struct {
	SpinThreshold time.Duration
}

// NewReal returns a wall clock with the default spin threshold
func NewReal() *Real {
	return &Real{SpinThreshold: DefaultSpinThreshold}
}

func (c *Real) Now() time.Time {
	return time.Now()
}

func (c *Real) SleepUntil(t time.Time) {
	for {
		remaining := time.Until(t)
		if remaining <= 0 {
			return
		}
		if remaining > c.SpinThreshold {
			time.Sleep(remaining - c.SpinThreshold)
			continue
		}
		// spin
	}
}

func (c *Real) Sleep(d time.Duration) {
	c.SleepUntil(time.Now().Add(d))
}

// Manual is a virtual clock. Sleeping moves the clock forward instead of
// blocking, so a sampling window completes instantly.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual creates a manual clock starting at the current time
func NewManual() *Manual {
	return &Manual{now: time.Now()}
}

// NewManualAt creates a manual clock starting at the specified time
func NewManualAt(t time.Time) *Manual {
	return &Manual{now: t}
}

func (c *Manual) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set sets the clock to t
func (c *Manual) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Manual) SleepUntil(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

func (c *Manual) Sleep(d time.Duration) {
	c.Advance(d)
}
