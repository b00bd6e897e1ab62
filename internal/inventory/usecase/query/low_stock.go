package query

import (
	"context"
	"fmt"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// LowStockHandler lists products that need restocking
type LowStockHandler struct {
	store domain.CatalogStore
}

// NewLowStockHandler creates a new low stock handler
func NewLowStockHandler(store domain.CatalogStore) *LowStockHandler {
	return &LowStockHandler{store: store}
}

// Handle returns every low or critical product in catalog order
func (h *LowStockHandler) Handle(ctx context.Context) ([]ProductView, error) {
	products, err := h.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	low := []ProductView{}
	for _, p := range products {
		if domain.IsLow(p.Stock, p.StockThreshold) {
			low = append(low, ProductView{Product: p, Status: p.Status()})
		}
	}
	return low, nil
}
