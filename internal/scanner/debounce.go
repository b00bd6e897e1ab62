package scanner

import (
	"sync"
	"time"
)

// Debouncer suppresses re-emission of the last emitted code until the cooldown
// elapses. A different code is always let through.
type Debouncer struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	last     string
	lastAt   time.Time
}

func NewDebouncer(cooldown time.Duration, now func() time.Time) *Debouncer {
	if now == nil {
		now = time.Now
	}
	return &Debouncer{cooldown: cooldown, now: now}
}

// Allow reports whether code should be emitted and records it if so
func (d *Debouncer) Allow(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := d.now()
	if code == d.last && t.Sub(d.lastAt) < d.cooldown {
		return false
	}
	d.last = code
	d.lastAt = t
	return true
}

// Reset forgets the last emitted code
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = ""
	d.lastAt = time.Time{}
}
