package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/inventory/repository"
	"github.com/tair/stock-scanner/internal/notification"
)

type recordingAlerts struct {
	products []domain.Product
	err      error
}

func (a *recordingAlerts) PublishLowStock(_ context.Context, p domain.Product) error {
	a.products = append(a.products, p)
	return a.err
}

// staleFlagStore serves a list whose flags were written by something else
type staleFlagStore struct {
	*repository.MemoryCatalogStore
	stale map[uint]bool
}

func (s *staleFlagStore) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.MemoryCatalogStore.List(ctx)
	for i := range products {
		if v, ok := s.stale[products[i].ID]; ok {
			products[i].LowStock = v
		}
	}
	return products, err
}

func (s *staleFlagStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	delete(s.stale, id)
	return s.MemoryCatalogStore.Update(ctx, id, patch)
}

func neverExpire(time.Duration, func()) func() { return func() {} }

func newQueue() *notification.Queue {
	return notification.NewQueue(notification.WithScheduler(neverExpire))
}

func product(barcode string, stock, threshold int) domain.Product {
	return domain.Product{
		Barcode: barcode, Name: "Coolant " + barcode, Category: "Refrigerantes",
		Price: decimal.NewFromInt(9), WholesalePrice: decimal.NewFromInt(6),
		Stock: stock, StockThreshold: threshold,
	}
}

func TestDeleteProductHandler(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryCatalogStore(product("12345678", 1, 1))
	q := newQueue()
	h := NewDeleteProductHandler(store, q)

	require.NoError(t, h.Handle(ctx, DeleteProductCommand{ID: 1, Name: "Coolant"}))
	require.Equal(t, notification.KindSuccess, q.Active()[0].Kind)

	err := h.Handle(ctx, DeleteProductCommand{ID: 1})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, notification.KindError, q.Active()[1].Kind)

	require.ErrorIs(t, h.Handle(ctx, DeleteProductCommand{}), domain.ErrValidation)
}

func TestRecordSaleHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("DecrementsAndAlerts", func(t *testing.T) {
		store := repository.NewMemoryCatalogStore(product("12345678", 6, 5))
		q := newQueue()
		alerts := &recordingAlerts{}
		h := NewRecordSaleHandler(store, q, alerts)

		change, err := h.Handle(ctx, RecordSaleCommand{Barcode: "12345678", Quantity: 2})
		require.NoError(t, err)
		require.Equal(t, 4, change.Current)
		require.True(t, change.Low())

		stored, err := store.FindByBarcode(ctx, "12345678")
		require.NoError(t, err)
		require.Equal(t, 4, stored.Stock)
		require.True(t, stored.LowStock)

		require.Len(t, q.Active(), 1)
		require.Contains(t, q.Active()[0].Message, "(4/5)")
		require.Len(t, alerts.products, 1)
		require.Equal(t, 4, alerts.products[0].Stock)
	})

	t.Run("NoAlertAboveThreshold", func(t *testing.T) {
		store := repository.NewMemoryCatalogStore(product("12345678", 20, 5))
		q := newQueue()
		alerts := &recordingAlerts{}
		h := NewRecordSaleHandler(store, q, alerts)

		_, err := h.Handle(ctx, RecordSaleCommand{Barcode: "12345678", Quantity: 1})
		require.NoError(t, err)
		require.Empty(t, q.Active())
		require.Empty(t, alerts.products)
	})

	t.Run("AlertFailureIgnored", func(t *testing.T) {
		store := repository.NewMemoryCatalogStore(product("12345678", 2, 5))
		h := NewRecordSaleHandler(store, newQueue(), &recordingAlerts{err: errors.New("down")})

		_, err := h.Handle(ctx, RecordSaleCommand{Barcode: "12345678", Quantity: 1})
		require.NoError(t, err)
	})

	t.Run("Oversell", func(t *testing.T) {
		store := repository.NewMemoryCatalogStore(product("12345678", 1, 5))
		h := NewRecordSaleHandler(store, newQueue(), nil)

		_, err := h.Handle(ctx, RecordSaleCommand{Barcode: "12345678", Quantity: 3})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("UnknownBarcode", func(t *testing.T) {
		h := NewRecordSaleHandler(repository.NewMemoryCatalogStore(), newQueue(), nil)
		_, err := h.Handle(ctx, RecordSaleCommand{Barcode: "12345678", Quantity: 1})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		h := NewRecordSaleHandler(repository.NewMemoryCatalogStore(), newQueue(), nil)
		_, err := h.Handle(ctx, RecordSaleCommand{Barcode: "12345678", Quantity: 0})
		require.ErrorIs(t, err, domain.ErrValidation)
		_, err = h.Handle(ctx, RecordSaleCommand{Barcode: "abc", Quantity: 1})
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestReconcileHandler(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryCatalogStore(
		product("12345678", 1, 5),
		product("87654321", 9, 5),
		product("11223344", 2, 5),
	)
	store := &staleFlagStore{MemoryCatalogStore: mem, stale: map[uint]bool{1: false, 2: true}}

	repaired, err := NewReconcileHandler(store).Handle(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repaired)

	repaired, err = NewReconcileHandler(store).Handle(ctx)
	require.NoError(t, err)
	require.Zero(t, repaired)
}
