package engine

import (
	"sync"
	"time"
)

// Clock supplies event timestamps and the bounded waits of a run.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type monotonicClock struct {
	anchor time.Time

	mu   sync.Mutex
	last time.Time
}

// NewMonotonicClock returns a UTC clock that never goes backwards. Wall
// time is read once and advanced by the monotonic reading afterwards, so
// NTP steps during a run do not reorder events.
func NewMonotonicClock() Clock {
	return &monotonicClock{anchor: time.Now()}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.anchor.Round(0).Add(time.Since(c.anchor)).UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

func (c *monotonicClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
