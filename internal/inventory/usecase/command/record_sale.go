package command

import (
	"context"
	"fmt"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/pkg/logger"
)

// RecordSaleCommand represents a sale reported by the point of sale
type RecordSaleCommand struct {
	Barcode  string
	Quantity int
}

// RecordSaleHandler decrements stock for a sold product
type RecordSaleHandler struct {
	store  domain.CatalogStore
	notify Notifier
	alerts AlertPublisher
}

// NewRecordSaleHandler creates a new record sale handler. alerts may be nil.
func NewRecordSaleHandler(store domain.CatalogStore, notify Notifier, alerts AlertPublisher) *RecordSaleHandler {
	return &RecordSaleHandler{store: store, notify: notify, alerts: alerts}
}

// Handle executes the record sale command
func (h *RecordSaleHandler) Handle(ctx context.Context, cmd RecordSaleCommand) (*domain.StockChange, error) {
	if !domain.IsValidBarcode(cmd.Barcode) {
		return nil, domain.NewValidationError(map[string]string{"barcode": "must be 8 to 13 digits"})
	}
	if cmd.Quantity <= 0 {
		return nil, domain.NewValidationError(map[string]string{"quantity": "must be positive"})
	}

	product, err := h.store.FindByBarcode(ctx, cmd.Barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("barcode %s: %w", cmd.Barcode, domain.ErrNotFound)
	}

	change, err := domain.ApplyStockDelta(product.Stock, -cmd.Quantity, product.StockThreshold)
	if err != nil {
		return nil, err
	}
	if err := h.store.UpdateStock(ctx, product.ID, -cmd.Quantity, product.Stock, product.StockThreshold); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	logger.Info(ctx).
		Uint("product_id", product.ID).
		Str("barcode", product.Barcode).
		Int("previous", change.Previous).
		Int("stock", change.Current).
		Msg("Sale recorded")

	if change.Low() {
		h.notify.LowStock(product.Name, change.Current, change.Threshold)

		product.Stock = change.Current
		product.RefreshLowStock()
		if h.alerts != nil {
			if err := h.alerts.PublishLowStock(ctx, *product); err != nil {
				logger.Warn(ctx).Err(err).Uint("product_id", product.ID).Msg("Failed to publish low-stock alert")
			}
		}
	}
	return &change, nil
}
