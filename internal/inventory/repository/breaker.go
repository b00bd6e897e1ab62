package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/metrics"
	"github.com/tair/stock-scanner/pkg/logger"
)

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Blocking calls
	StateHalfOpen CircuitState = "half-open" // Testing if the store recovered
)

// CircuitBreaker trips after maxFailures consecutive store failures and rejects
// calls until openFor has elapsed.
type CircuitBreaker struct {
	maxFailures     int
	openFor         time.Duration
	halfOpenSuccess int
	state           CircuitState
	failures        int
	successCount    int
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(maxFailures int, openFor time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:     maxFailures,
		openFor:         openFor,
		halfOpenSuccess: 2,
		state:           StateClosed,
		now:             time.Now,
		lastStateChange: time.Now(),
	}
}

// Allow reports whether a call may proceed, moving open to half-open once the
// open period is over.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.openFor {
		cb.setState(StateHalfOpen)
	}
	return cb.state != StateOpen
}

// Record feeds the outcome of a call back into the breaker
func (cb *CircuitBreaker) Record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if failed {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.setState(StateOpen)
			logger.Logger.Error().
				Int("failures", cb.failures).
				Int("threshold", cb.maxFailures).
				Msg("Catalog store circuit opened")
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.halfOpenSuccess {
			cb.failures = 0
			cb.setState(StateClosed)
			logger.Logger.Info().Msg("Catalog store circuit closed after recovery")
		}
	case StateClosed:
		cb.failures = 0
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) setState(s CircuitState) {
	cb.state = s
	cb.successCount = 0
	cb.lastStateChange = cb.now()
}

// GuardedCatalogStore bounds every store call with a timeout and a circuit
// breaker. Timeouts and rejected calls surface as domain.ErrStoreUnavailable.
type GuardedCatalogStore struct {
	next    domain.CatalogStore
	timeout time.Duration
	breaker *CircuitBreaker
}

// NewGuardedCatalogStore wraps next; a zero timeout disables the deadline
func NewGuardedCatalogStore(next domain.CatalogStore, timeout time.Duration, breaker *CircuitBreaker) *GuardedCatalogStore {
	return &GuardedCatalogStore{next: next, timeout: timeout, breaker: breaker}
}

func (g *GuardedCatalogStore) List(ctx context.Context) ([]domain.Product, error) {
	return guard(ctx, g, "list", func(ctx context.Context) ([]domain.Product, error) {
		return g.next.List(ctx)
	})
}

func (g *GuardedCatalogStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return guard(ctx, g, "find_by_barcode", func(ctx context.Context) (*domain.Product, error) {
		return g.next.FindByBarcode(ctx, barcode)
	})
}

func (g *GuardedCatalogStore) Create(ctx context.Context, product *domain.Product) (uint, error) {
	// The store assigns ID and timestamps on a private copy; they are copied
	// back only when the call completed in time.
	draft := *product
	created, err := guard(ctx, g, "create", func(ctx context.Context) (domain.Product, error) {
		_, err := g.next.Create(ctx, &draft)
		return draft, err
	})
	if err != nil {
		return 0, err
	}
	*product = created
	return created.ID, nil
}

func (g *GuardedCatalogStore) UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error {
	_, err := guard(ctx, g, "update_stock", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.UpdateStock(ctx, id, delta, currentStock, threshold)
	})
	return err
}

func (g *GuardedCatalogStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	_, err := guard(ctx, g, "update", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.Update(ctx, id, patch)
	})
	return err
}

func (g *GuardedCatalogStore) Delete(ctx context.Context, id uint) error {
	_, err := guard(ctx, g, "delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.Delete(ctx, id)
	})
	return err
}

type guardResult[T any] struct {
	value T
	err   error
}

// guard runs fn under the breaker and the deadline. The caller is released when
// the deadline passes even if the store never returns.
func guard[T any](ctx context.Context, g *GuardedCatalogStore, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if g.breaker != nil && !g.breaker.Allow() {
		metrics.StoreLatency.WithLabelValues(op, "rejected").Observe(0)
		return zero, fmt.Errorf("%s: %w: circuit open", op, domain.ErrStoreUnavailable)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan guardResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- guardResult[T]{value: v, err: err}
	}()

	var res guardResult[T]
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res = guardResult[T]{err: fmt.Errorf("%s: %w: timed out after %s", op, domain.ErrStoreUnavailable, g.timeout)}
	}

	// Only infrastructure failures count against the breaker.
	failed := errors.Is(res.err, domain.ErrStoreUnavailable)
	if g.breaker != nil {
		g.breaker.Record(failed)
	}

	status := "ok"
	switch {
	case failed:
		status = "unavailable"
	case res.err != nil:
		status = "rejected"
	}
	metrics.StoreLatency.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	if res.err != nil {
		return zero, res.err
	}
	return res.value, nil
}
