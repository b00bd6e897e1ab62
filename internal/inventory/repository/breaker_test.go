package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// hangingStore blocks lookups until released
type hangingStore struct {
	*MemoryCatalogStore
	release chan struct{}
	failing bool
}

func (s *hangingStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	if s.failing {
		return nil, domain.Unavailable("find", errors.New("connection refused"))
	}
	<-s.release
	return nil, nil
}

func TestGuardedCatalogStore_TimesOut(t *testing.T) {
	inner := &hangingStore{MemoryCatalogStore: NewMemoryCatalogStore(), release: make(chan struct{})}
	defer close(inner.release)

	store := NewGuardedCatalogStore(inner, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := store.FindByBarcode(context.Background(), "12345678")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.Less(t, time.Since(start), time.Second)
}

func TestGuardedCatalogStore_PassesThroughDomainErrors(t *testing.T) {
	store := NewGuardedCatalogStore(NewMemoryCatalogStore(), time.Second, NewCircuitBreaker(1, time.Minute))

	err := store.Delete(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestGuardedCatalogStore_CreateCopiesAssignedID(t *testing.T) {
	store := NewGuardedCatalogStore(NewMemoryCatalogStore(), time.Second, nil)
	p := newProduct("44444444", "Gear Oil", 4, 2)

	id, err := store.Create(context.Background(), &p)
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	require.False(t, p.LastModified.IsZero())
}

func TestCircuitBreaker(t *testing.T) {
	released := make(chan struct{})
	close(released)
	inner := &hangingStore{MemoryCatalogStore: NewMemoryCatalogStore(), release: released, failing: true}
	breaker := NewCircuitBreaker(2, time.Minute)
	now := time.Now()
	breaker.now = func() time.Time { return now }
	store := NewGuardedCatalogStore(inner, time.Second, breaker)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.FindByBarcode(ctx, "12345678")
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	}
	require.Equal(t, StateOpen, breaker.State())

	inner.failing = false

	// Rejected while open.
	_, err := store.FindByBarcode(ctx, "12345678")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.Contains(t, err.Error(), "circuit open")

	now = now.Add(2 * time.Minute)
	for i := 0; i < 2; i++ {
		_, err = store.FindByBarcode(ctx, "12345678")
		require.NoError(t, err)
	}
	require.Equal(t, StateClosed, breaker.State())
}
