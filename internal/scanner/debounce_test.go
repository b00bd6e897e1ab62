package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestDebouncer(t *testing.T) {
	const code = "012345678905"

	t.Run("SameCodeWithinCooldown", func(t *testing.T) {
		clock := &manualClock{t: time.Unix(0, 0)}
		d := NewDebouncer(3000*time.Millisecond, clock.now)

		assert.True(t, d.Allow(code))
		clock.advance(1500 * time.Millisecond)
		assert.False(t, d.Allow(code))
	})

	t.Run("SameCodeAfterCooldown", func(t *testing.T) {
		clock := &manualClock{t: time.Unix(0, 0)}
		d := NewDebouncer(3000*time.Millisecond, clock.now)

		assert.True(t, d.Allow(code))
		clock.advance(3000 * time.Millisecond)
		assert.True(t, d.Allow(code))
	})

	t.Run("SuppressedReadDoesNotExtendWindow", func(t *testing.T) {
		clock := &manualClock{t: time.Unix(0, 0)}
		d := NewDebouncer(3000*time.Millisecond, clock.now)

		assert.True(t, d.Allow(code))
		clock.advance(2900 * time.Millisecond)
		assert.False(t, d.Allow(code))
		clock.advance(100 * time.Millisecond)
		assert.True(t, d.Allow(code))
	})

	t.Run("DifferentCode", func(t *testing.T) {
		clock := &manualClock{t: time.Unix(0, 0)}
		d := NewDebouncer(3000*time.Millisecond, clock.now)

		assert.True(t, d.Allow(code))
		assert.True(t, d.Allow("12345678"))
		assert.True(t, d.Allow(code))
	})

	t.Run("Reset", func(t *testing.T) {
		clock := &manualClock{t: time.Unix(0, 0)}
		d := NewDebouncer(3000*time.Millisecond, clock.now)

		assert.True(t, d.Allow(code))
		d.Reset()
		assert.True(t, d.Allow(code))
	})
}
