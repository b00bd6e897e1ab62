package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

var tracer = otel.Tracer("catalog-repository")

// TracedCatalogStore wraps a CatalogStore with a span per call
type TracedCatalogStore struct {
	next domain.CatalogStore
}

// NewTracedCatalogStore creates a new store decorator with tracing
func NewTracedCatalogStore(next domain.CatalogStore) *TracedCatalogStore {
	return &TracedCatalogStore{next: next}
}

// List with tracing
func (r *TracedCatalogStore) List(ctx context.Context) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.List")
	defer span.End()

	products, err := r.next.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(products)))
	return products, nil
}

// FindByBarcode with tracing
func (r *TracedCatalogStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByBarcode",
		trace.WithAttributes(
			attribute.String("product.barcode", barcode),
		),
	)
	defer span.End()

	product, err := r.next.FindByBarcode(ctx, barcode)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("result.found", product != nil))
	if product != nil {
		span.SetAttributes(
			attribute.Int("product.id", int(product.ID)),
			attribute.String("product.name", product.Name),
		)
	}
	return product, nil
}

// Create with tracing
func (r *TracedCatalogStore) Create(ctx context.Context, product *domain.Product) (uint, error) {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("product.barcode", product.Barcode),
			attribute.String("product.name", product.Name),
			attribute.String("product.category", product.Category),
			attribute.Int("product.stock", product.Stock),
			attribute.Int("product.stock_threshold", product.StockThreshold),
		),
	)
	defer span.End()

	id, err := r.next.Create(ctx, product)
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	span.SetAttributes(attribute.Int("product.id", int(id)))
	return id, nil
}

// UpdateStock with tracing
func (r *TracedCatalogStore) UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error {
	ctx, span := tracer.Start(ctx, "repository.UpdateStock",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
			attribute.Int("stock.delta", delta),
			attribute.Int("stock.current", currentStock),
			attribute.Int("stock.threshold", threshold),
		),
	)
	defer span.End()

	if err := r.next.UpdateStock(ctx, id, delta, currentStock, threshold); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// Update with tracing
func (r *TracedCatalogStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
		),
	)
	defer span.End()

	if err := r.next.Update(ctx, id, patch); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// Delete with tracing
func (r *TracedCatalogStore) Delete(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
		),
	)
	defer span.End()

	if err := r.next.Delete(ctx, id); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
