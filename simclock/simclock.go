// Package simclock provides a clockwork fake whose Sleep moves time
// forward instead of blocking, so a single goroutine can run code full of
// hardware delays against simulated time.
package simclock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type Clock struct {
	clockwork.FakeClock
	slept time.Duration
}

func New() *Clock {
	return &Clock{FakeClock: clockwork.NewFakeClock()}
}

func NewAt(t time.Time) *Clock {
	return &Clock{FakeClock: clockwork.NewFakeClockAt(t)}
}

// Sleep advances the fake time by d.
func (c *Clock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.slept += d
	c.Advance(d)
}

// After advances the fake time by d and returns an already-fired channel.
func (c *Clock) After(d time.Duration) <-chan time.Time {
	c.Sleep(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// Slept is the total simulated time spent in Sleep and After.
func (c *Clock) Slept() time.Duration {
	return c.slept
}
