package repository

import (
	"sync"
	"time"
)

// modClock hands out strictly increasing modification times
type modClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newModClock() *modClock {
	return &modClock{now: time.Now}
}

func (c *modClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
