package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualScheduler records pending timers and fires them on demand
type manualScheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	timers  []*manualTimer
}

type manualTimer struct {
	due      time.Duration
	fn       func()
	fired    bool
	canceled bool
}

func (s *manualScheduler) schedule(d time.Duration, f func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{due: s.elapsed + d, fn: f}
	s.timers = append(s.timers, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.canceled = true
	}
}

// advance moves the clock and fires every due timer, including canceled
// ones, to prove late fires are harmless
func (s *manualScheduler) advance(d time.Duration, fireCanceled bool) {
	s.mu.Lock()
	s.elapsed += d
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.fired && t.due <= s.elapsed && (!t.canceled || fireCanceled) {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func newTestQueue() (*Queue, *manualScheduler) {
	s := &manualScheduler{}
	return NewQueue(WithScheduler(s.schedule)), s
}

func TestQueue_Push(t *testing.T) {
	t.Run("KeepsInsertionOrder", func(t *testing.T) {
		q, _ := newTestQueue()
		a := q.Info("first")
		b := q.Error("second")
		c := q.Push(KindSuccess, "third", 0)

		active := q.Active()
		require.Len(t, active, 3)
		require.Equal(t, []string{a.ID, b.ID, c.ID}, []string{active[0].ID, active[1].ID, active[2].ID})
		require.Equal(t, int64(3000), a.ExpiresAfterMs)
		require.Equal(t, int64(4000), b.ExpiresAfterMs)
		require.True(t, c.Sticky())
	})

	t.Run("ExpiresAfterTTL", func(t *testing.T) {
		q, clock := newTestQueue()
		q.Push(KindSuccess, "saved", 3000*time.Millisecond)

		clock.advance(2999*time.Millisecond, false)
		require.Equal(t, 1, q.Len())

		clock.advance(time.Millisecond, false)
		require.Equal(t, 0, q.Len())
	})

	t.Run("ExpiryMeasuredFromOwnPush", func(t *testing.T) {
		q, clock := newTestQueue()
		first := q.Push(KindInfo, "first", 3000*time.Millisecond)
		clock.advance(2000*time.Millisecond, false)
		second := q.Push(KindInfo, "second", 3000*time.Millisecond)

		clock.advance(1000*time.Millisecond, false)
		active := q.Active()
		require.Len(t, active, 1)
		require.Equal(t, second.ID, active[0].ID)
		require.NotEqual(t, first.ID, active[0].ID)

		clock.advance(2000*time.Millisecond, false)
		require.Empty(t, q.Active())
	})

	t.Run("StickyNeverExpires", func(t *testing.T) {
		q, clock := newTestQueue()
		q.Push(KindError, "camera unavailable", 0)

		clock.advance(time.Hour, false)
		require.Equal(t, 1, q.Len())
	})
}

func TestQueue_Dismiss(t *testing.T) {
	t.Run("BeforeExpiryLateFireIsNoop", func(t *testing.T) {
		q, clock := newTestQueue()
		n := q.Push(KindWarning, "check stock", 3000*time.Millisecond)
		other := q.Push(KindInfo, "other", 10000*time.Millisecond)

		q.Dismiss(n.ID)
		require.Len(t, q.Active(), 1)

		clock.advance(3000*time.Millisecond, true)
		active := q.Active()
		require.Len(t, active, 1)
		require.Equal(t, other.ID, active[0].ID)
	})

	t.Run("Idempotent", func(t *testing.T) {
		q, _ := newTestQueue()
		n := q.Info("hello")
		q.Dismiss(n.ID)
		q.Dismiss(n.ID)
		q.Dismiss("unknown")
		require.Equal(t, 0, q.Len())
	})
}

func TestQueue_Clear(t *testing.T) {
	q, clock := newTestQueue()
	q.Info("a")
	q.Warning("b")

	q.Clear()
	require.Empty(t, q.Active())

	kept := q.Push(KindInfo, "after clear", 10000*time.Millisecond)
	clock.advance(5000*time.Millisecond, true)

	active := q.Active()
	require.Len(t, active, 1)
	require.Equal(t, kept.ID, active[0].ID)
}

func TestQueue_LowStock(t *testing.T) {
	q, _ := newTestQueue()
	n := q.LowStock("Oil Filter", 5, 10)

	require.Equal(t, KindWarning, n.Kind)
	require.Equal(t, int64(5000), n.ExpiresAfterMs)
	require.Contains(t, n.Message, "Oil Filter")
	require.Contains(t, n.Message, "(5/10)")
}

func TestQueue_RealTimer(t *testing.T) {
	q := NewQueue()
	q.Push(KindInfo, "short lived", 10*time.Millisecond)

	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}
