package feed

import (
	"context"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// NotifyingStore refreshes the feed after every successful write so local
// changes reach subscribers without waiting for the database notification
type NotifyingStore struct {
	domain.CatalogStore
	feed *Feed
}

func NewNotifyingStore(next domain.CatalogStore, feed *Feed) *NotifyingStore {
	return &NotifyingStore{CatalogStore: next, feed: feed}
}

func (s *NotifyingStore) Create(ctx context.Context, product *domain.Product) (uint, error) {
	id, err := s.CatalogStore.Create(ctx, product)
	if err == nil {
		s.changed(ctx)
	}
	return id, err
}

func (s *NotifyingStore) UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error {
	err := s.CatalogStore.UpdateStock(ctx, id, delta, currentStock, threshold)
	if err == nil {
		s.changed(ctx)
	}
	return err
}

func (s *NotifyingStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	err := s.CatalogStore.Update(ctx, id, patch)
	if err == nil {
		s.changed(ctx)
	}
	return err
}

func (s *NotifyingStore) Delete(ctx context.Context, id uint) error {
	err := s.CatalogStore.Delete(ctx, id)
	if err == nil {
		s.changed(ctx)
	}
	return err
}

// changed never fails the write; refresh errors are logged by the feed
func (s *NotifyingStore) changed(ctx context.Context) {
	_ = s.feed.Refresh(context.WithoutCancel(ctx))
}
