package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// MemoryCatalogStore keeps products in process memory. It backs STORE_DRIVER=memory
// and the tests of the packages above the store.
type MemoryCatalogStore struct {
	mu       sync.RWMutex
	products map[uint]domain.Product
	nextID   uint
	clock    *modClock
}

func NewMemoryCatalogStore(seed ...domain.Product) *MemoryCatalogStore {
	s := &MemoryCatalogStore{
		products: make(map[uint]domain.Product),
		clock:    newModClock(),
	}
	for _, p := range seed {
		p := p
		_, _ = s.Create(context.Background(), &p)
	}
	return s
}

func (s *MemoryCatalogStore) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].LastModified.After(products[j].LastModified)
	})
	return products, nil
}

func (s *MemoryCatalogStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Barcode == barcode {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

// FindByID returns a copy of the stored product
func (s *MemoryCatalogStore) FindByID(id uint) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *MemoryCatalogStore) Create(ctx context.Context, product *domain.Product) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.barcodeTaken(product.Barcode, 0) {
		return 0, fmt.Errorf("create %s: %w", product.Barcode, domain.ErrDuplicateBarcode)
	}

	s.nextID++
	product.ID = s.nextID
	product.LastModified = s.clock.Next()
	product.RefreshLowStock()
	s.products[product.ID] = *product
	return product.ID, nil
}

func (s *MemoryCatalogStore) UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error {
	change, err := domain.ApplyStockDelta(currentStock, delta, threshold)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Stock = change.Current
	p.LowStock = change.Low()
	p.LastModified = s.clock.Next()
	s.products[id] = p
	return nil
}

func (s *MemoryCatalogStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Barcode != nil && s.barcodeTaken(*patch.Barcode, id) {
		return fmt.Errorf("update %d: %w", id, domain.ErrDuplicateBarcode)
	}

	patch.Apply(&p)
	p.LastModified = s.clock.Next()
	s.products[id] = p
	return nil
}

func (s *MemoryCatalogStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryCatalogStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryCatalogStore) barcodeTaken(barcode string, except uint) bool {
	for id, p := range s.products {
		if id != except && p.Barcode == barcode {
			return true
		}
	}
	return false
}
