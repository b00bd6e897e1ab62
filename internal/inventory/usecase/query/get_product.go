package query

import (
	"context"
	"fmt"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// GetProductQuery represents the query to get a product by barcode
type GetProductQuery struct {
	Barcode string
}

// GetProductHandler handles get product query
type GetProductHandler struct {
	store domain.CatalogStore
}

// NewGetProductHandler creates a new get product handler
func NewGetProductHandler(store domain.CatalogStore) *GetProductHandler {
	return &GetProductHandler{store: store}
}

// Handle executes the get product query
func (h *GetProductHandler) Handle(ctx context.Context, query GetProductQuery) (*ProductView, error) {
	if !domain.IsValidBarcode(query.Barcode) {
		return nil, domain.NewValidationError(map[string]string{"barcode": "must be 8 to 13 digits"})
	}

	product, err := h.store.FindByBarcode(ctx, query.Barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("barcode %s: %w", query.Barcode, domain.ErrNotFound)
	}
	return &ProductView{Product: *product, Status: product.Status()}, nil
}
