package scpi

import (
	"sync"
	"time"
)

// Clock abstracts time for the completion-polling loop so tests can drive
// the poll deadline without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real wall clock. It is the default for sessions.
func SystemClock() Clock { return systemClock{} }

// FakeClock is a deterministic Clock for tests. Sleep advances the fake
// time instead of blocking and records each requested duration.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

var _ Clock = (*FakeClock)(nil)

// NewFakeClock creates a FakeClock starting at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
}

// Advance moves the fake time forward without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Sleeps returns a copy of every duration passed to Sleep so far.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	sleeps := make([]time.Duration, len(c.sleeps))
	copy(sleeps, c.sleeps)

	return sleeps
}
