package notification

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tair/stock-scanner/internal/metrics"
	"github.com/tair/stock-scanner/pkg/logger"
)

// Kind classifies a notification for display
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Default lifetimes per kind
const (
	SuccessTTL  = 3000 * time.Millisecond
	ErrorTTL    = 4000 * time.Millisecond
	WarningTTL  = 4000 * time.Millisecond
	InfoTTL     = 3000 * time.Millisecond
	LowStockTTL = 5000 * time.Millisecond
)

// Notification is a transient user-facing message
type Notification struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Message        string    `json:"message"`
	ExpiresAfterMs int64     `json:"expires_after_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sticky reports whether the notification stays until dismissed
func (n Notification) Sticky() bool {
	return n.ExpiresAfterMs == 0
}

// Scheduler runs f once after d. The returned func cancels the pending run.
type Scheduler func(d time.Duration, f func()) (cancel func())

func afterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Queue owns the active notification set. Insertion order is display order.
type Queue struct {
	mu       sync.Mutex
	items    []Notification
	cancels  map[string]func()
	epoch    uint64
	schedule Scheduler
	now      func() time.Time
}

// Option configures a Queue
type Option func(*Queue)

// WithScheduler replaces the timer used for expiry
func WithScheduler(s Scheduler) Option {
	return func(q *Queue) { q.schedule = s }
}

// NewQueue creates an empty queue
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		cancels:  make(map[string]func()),
		schedule: afterFunc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a notification. A positive ttl schedules its removal measured
// from now; ttl <= 0 keeps it until dismissed.
func (q *Queue) Push(kind Kind, message string, ttl time.Duration) Notification {
	if ttl < 0 {
		ttl = 0
	}
	n := Notification{
		ID:             "alert-" + uuid.NewString(),
		Kind:           kind,
		Message:        message,
		ExpiresAfterMs: ttl.Milliseconds(),
		CreatedAt:      q.now(),
	}

	q.mu.Lock()
	q.items = append(q.items, n)
	epoch := q.epoch
	q.mu.Unlock()

	if ttl > 0 {
		cancel := q.schedule(ttl, func() { q.expire(n.ID, epoch) })
		q.mu.Lock()
		if q.epoch == epoch && q.indexOf(n.ID) >= 0 {
			q.cancels[n.ID] = cancel
		} else {
			cancel()
		}
		q.mu.Unlock()
	}

	metrics.NotificationsPushed.WithLabelValues(string(kind)).Inc()
	logger.Logger.Debug().
		Str("notification_id", n.ID).
		Str("kind", string(kind)).
		Str("message", message).
		Int64("ttl_ms", n.ExpiresAfterMs).
		Msg("Notification pushed")
	return n
}

// Dismiss removes the notification. Unknown or already expired ids are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remove(id)
}

// Clear empties the queue; timers still pending become no-ops
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.epoch++
	for id, cancel := range q.cancels {
		cancel()
		delete(q.cancels, id)
	}
	q.items = nil
}

// Active returns a snapshot of the active set in display order
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of active notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Success(message string) Notification {
	return q.Push(KindSuccess, message, SuccessTTL)
}

func (q *Queue) Error(message string) Notification {
	return q.Push(KindError, message, ErrorTTL)
}

func (q *Queue) Warning(message string) Notification {
	return q.Push(KindWarning, message, WarningTTL)
}

func (q *Queue) Info(message string) Notification {
	return q.Push(KindInfo, message, InfoTTL)
}

// LowStock pushes the dedicated low-stock warning
func (q *Queue) LowStock(product string, stock, threshold int) Notification {
	return q.Push(KindWarning, LowStockMessage(product, stock, threshold), LowStockTTL)
}

// LowStockMessage renders the low-stock warning text
func LowStockMessage(product string, stock, threshold int) string {
	return fmt.Sprintf("⚠️ %s: low stock (%d/%d)", product, stock, threshold)
}

func (q *Queue) expire(id string, epoch uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if epoch != q.epoch {
		return
	}
	q.remove(id)
}

func (q *Queue) remove(id string) {
	if cancel, ok := q.cancels[id]; ok {
		cancel()
		delete(q.cancels, id)
	}
	if i := q.indexOf(id); i >= 0 {
		q.items = append(q.items[:i], q.items[i+1:]...)
	}
}

func (q *Queue) indexOf(id string) int {
	for i := range q.items {
		if q.items[i].ID == id {
			return i
		}
	}
	return -1
}
