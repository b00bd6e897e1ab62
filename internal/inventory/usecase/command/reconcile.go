package command

import (
	"context"
	"fmt"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/pkg/logger"
)

// ReconcileHandler repairs products whose persisted low-stock flag disagrees
// with their stock and threshold, e.g. after manual database edits
type ReconcileHandler struct {
	store domain.CatalogStore
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(store domain.CatalogStore) *ReconcileHandler {
	return &ReconcileHandler{store: store}
}

// Handle returns the number of repaired products
func (h *ReconcileHandler) Handle(ctx context.Context) (int, error) {
	products, err := h.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	repaired := 0
	for _, p := range products {
		if p.LowStock == domain.IsLow(p.Stock, p.StockThreshold) {
			continue
		}
		// an empty patch rewrites the derived flag
		if err := h.store.Update(ctx, p.ID, domain.ProductPatch{}); err != nil {
			return repaired, fmt.Errorf("failed to repair product %d: %w", p.ID, err)
		}
		repaired++
		logger.Warn(ctx).
			Uint("product_id", p.ID).
			Bool("was", p.LowStock).
			Msg("Low-stock flag repaired")
	}
	return repaired, nil
}
