package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/metrics"
	"github.com/tair/stock-scanner/pkg/logger"
)

// Listener receives the full product list after every catalog change
type Listener func(products []domain.Product)

// Feed is the live catalog list. Subscribers are called with the latest
// snapshot on subscribe and after every refresh, until they unsubscribe.
type Feed struct {
	store domain.CatalogStore
	log   zerolog.Logger

	mu      sync.Mutex
	subs    map[uint64]Listener
	nextID  uint64
	latest  []domain.Product
	loaded  bool
	refresh sync.Mutex
}

// Subscription is the handle returned by Subscribe
type Subscription struct {
	feed *Feed
	id   uint64
	once sync.Once
}

func New(store domain.CatalogStore) *Feed {
	return &Feed{
		store: store,
		subs:  make(map[uint64]Listener),
		log:   logger.Component("catalog_feed"),
	}
}

// Subscribe registers fn. If a snapshot is already loaded fn receives it
// before Subscribe returns.
func (f *Feed) Subscribe(fn Listener) *Subscription {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	snapshot, loaded := f.copyLatest(), f.loaded
	f.mu.Unlock()

	if loaded {
		fn(snapshot)
	}
	return &Subscription{feed: f, id: id}
}

// Unsubscribe releases the registration. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s.id)
		s.feed.mu.Unlock()
	})
}

// Subscribers returns the number of live registrations
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Snapshot returns the last loaded list, ordered by last modification
func (f *Feed) Snapshot() []domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyLatest()
}

// Refresh reloads the list from the store and fans it out to subscribers.
// Concurrent refreshes are serialized so subscribers observe lists in order.
func (f *Feed) Refresh(ctx context.Context) error {
	f.refresh.Lock()
	defer f.refresh.Unlock()

	products, err := f.store.List(ctx)
	if err != nil {
		f.log.Warn().Err(err).Msg("Catalog refresh failed")
		return err
	}

	low := 0
	for i := range products {
		if domain.IsLow(products[i].Stock, products[i].StockThreshold) {
			low++
		}
	}
	metrics.LowStockProducts.Set(float64(low))

	f.mu.Lock()
	f.latest = products
	f.loaded = true
	listeners := make([]Listener, 0, len(f.subs))
	for _, fn := range f.subs {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		snapshot := make([]domain.Product, len(products))
		copy(snapshot, products)
		fn(snapshot)
	}

	f.log.Debug().Int("products", len(products)).Int("subscribers", len(listeners)).Msg("Catalog refreshed")
	return nil
}

func (f *Feed) copyLatest() []domain.Product {
	out := make([]domain.Product, len(f.latest))
	copy(out, f.latest)
	return out
}
