package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// StatusAll disables the tier filter
const StatusAll = "all"

// ListProductsQuery represents the query to list products
type ListProductsQuery struct {
	Search string
	Status string
}

// ProductView is a product with its derived badge
type ProductView struct {
	domain.Product
	Status domain.StockStatus `json:"status"`
}

// StatusCounts is the per-tier count panel. Counts cover the whole catalog,
// not only the filtered page.
type StatusCounts struct {
	All      int `json:"all"`
	Critical int `json:"critical"`
	Low      int `json:"low"`
	Ok       int `json:"ok"`
}

// ListProductsResult holds the filtered list and the count panel
type ListProductsResult struct {
	Products []ProductView `json:"products"`
	Counts   StatusCounts  `json:"counts"`
}

// ListProductsHandler handles list products query
type ListProductsHandler struct {
	store domain.CatalogStore
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(store domain.CatalogStore) *ListProductsHandler {
	return &ListProductsHandler{store: store}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(ctx context.Context, query ListProductsQuery) (*ListProductsResult, error) {
	var tier domain.StockTier
	if query.Status != "" && query.Status != StatusAll {
		t, err := domain.ParseTier(query.Status)
		if err != nil {
			return nil, domain.NewValidationError(map[string]string{"status": err.Error()})
		}
		tier = t
	}

	products, err := h.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return Filter(products, query.Search, tier), nil
}

// Filter applies search and tier to an already loaded list. An empty tier
// matches every product. Order is preserved.
func Filter(products []domain.Product, search string, tier domain.StockTier) *ListProductsResult {
	needle := strings.ToLower(strings.TrimSpace(search))
	result := &ListProductsResult{Products: []ProductView{}}

	for _, p := range products {
		status := p.Status()
		result.Counts.All++
		switch status.Tier {
		case domain.TierCritical:
			result.Counts.Critical++
		case domain.TierLow:
			result.Counts.Low++
		case domain.TierOk:
			result.Counts.Ok++
		}

		if tier != "" && status.Tier != tier {
			continue
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		result.Products = append(result.Products, ProductView{Product: p, Status: status})
	}
	return result
}

func matches(p domain.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(p.Barcode, needle) ||
		strings.Contains(strings.ToLower(p.Category), needle)
}
