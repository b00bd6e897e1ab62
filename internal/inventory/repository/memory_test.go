package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

func newProduct(barcode, name string, stock, threshold int) domain.Product {
	return domain.Product{
		Barcode:        barcode,
		Name:           name,
		Price:          decimal.NewFromInt(10),
		WholesalePrice: decimal.NewFromInt(8),
		Stock:          stock,
		StockThreshold: threshold,
		Category:       "Filtros",
	}
}

func TestMemoryCatalogStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Create_AssignsIDAndFlag", func(t *testing.T) {
		store := NewMemoryCatalogStore()
		p := newProduct("7501031311309", "Oil Filter", 5, 10)

		id, err := store.Create(ctx, &p)
		require.NoError(t, err)
		require.NotZero(t, id)
		require.True(t, p.LowStock)
		require.False(t, p.LastModified.IsZero())

		found, err := store.FindByBarcode(ctx, "7501031311309")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, id, found.ID)
		require.True(t, found.LowStock)
	})

	t.Run("Create_RejectsDuplicateBarcode", func(t *testing.T) {
		store := NewMemoryCatalogStore(newProduct("12345678", "Spark Plug", 3, 1))
		dup := newProduct("12345678", "Other", 1, 1)

		_, err := store.Create(ctx, &dup)
		require.ErrorIs(t, err, domain.ErrDuplicateBarcode)
	})

	t.Run("FindByBarcode_MissReturnsNil", func(t *testing.T) {
		store := NewMemoryCatalogStore()
		found, err := store.FindByBarcode(ctx, "00000000")
		require.NoError(t, err)
		require.Nil(t, found)
	})

	t.Run("UpdateStock_RecomputesFlag", func(t *testing.T) {
		store := NewMemoryCatalogStore()
		p := newProduct("012345678905", "Brake Pad", 2, 10)
		id, err := store.Create(ctx, &p)
		require.NoError(t, err)
		before := p.LastModified

		require.NoError(t, store.UpdateStock(ctx, id, 20, 2, 10))

		stored, err := store.FindByID(id)
		require.NoError(t, err)
		require.Equal(t, 22, stored.Stock)
		require.False(t, stored.LowStock)
		require.True(t, stored.LastModified.After(before))
	})

	t.Run("UpdateStock_MissingProduct", func(t *testing.T) {
		store := NewMemoryCatalogStore()
		require.ErrorIs(t, store.UpdateStock(ctx, 42, 1, 0, 0), domain.ErrNotFound)
	})

	t.Run("Update_AppliesPatch", func(t *testing.T) {
		store := NewMemoryCatalogStore()
		p := newProduct("87654321", "Coolant", 10, 5)
		id, err := store.Create(ctx, &p)
		require.NoError(t, err)

		threshold := 20
		require.NoError(t, store.Update(ctx, id, domain.ProductPatch{StockThreshold: &threshold}))

		stored, err := store.FindByID(id)
		require.NoError(t, err)
		require.Equal(t, 20, stored.StockThreshold)
		require.True(t, stored.LowStock)
	})

	t.Run("List_OrdersByLastModifiedDesc", func(t *testing.T) {
		store := NewMemoryCatalogStore(
			newProduct("11111111", "First", 1, 1),
			newProduct("22222222", "Second", 1, 1),
		)
		first, err := store.FindByBarcode(ctx, "11111111")
		require.NoError(t, err)
		require.NoError(t, store.UpdateStock(ctx, first.ID, 1, first.Stock, first.StockThreshold))

		products, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		require.Equal(t, "First", products[0].Name)
		require.Equal(t, "Second", products[1].Name)
	})

	t.Run("Delete_IsHardRemove", func(t *testing.T) {
		store := NewMemoryCatalogStore(newProduct("33333333", "Additive", 1, 1))
		p, err := store.FindByBarcode(ctx, "33333333")
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, p.ID))
		require.ErrorIs(t, store.Delete(ctx, p.ID), domain.ErrNotFound)

		found, err := store.FindByBarcode(ctx, "33333333")
		require.NoError(t, err)
		require.Nil(t, found)
	})
}
