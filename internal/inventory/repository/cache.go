package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/pkg/logger"
)

const barcodeKeyPrefix = "catalog:barcode:"

// CachedCatalogStore serves barcode lookups from Redis (cache-aside). Any write
// drops the cached lookups; cache failures fall through to the store.
type CachedCatalogStore struct {
	domain.CatalogStore
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedCatalogStore wraps next with a Redis lookup cache
func NewCachedCatalogStore(next domain.CatalogStore, rdb *redis.Client, ttl time.Duration) *CachedCatalogStore {
	return &CachedCatalogStore{CatalogStore: next, rdb: rdb, ttl: ttl}
}

func (c *CachedCatalogStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	key := barcodeKeyPrefix + barcode

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil && len(cached) > 0 {
		var product domain.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			logger.Logger.Debug().Str("barcode", barcode).Msg("Barcode cache hit")
			return &product, nil
		}
	} else if err != nil && err != redis.Nil {
		logger.Logger.Warn().Err(err).Str("barcode", barcode).Msg("Barcode cache read failed")
	}

	product, err := c.CatalogStore.FindByBarcode(ctx, barcode)
	if err != nil || product == nil {
		return product, err
	}

	// Misses are not cached: an unknown code is usually created right after.
	if encoded, err := json.Marshal(product); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			logger.Logger.Warn().Err(err).Str("barcode", barcode).Msg("Failed to cache product")
		}
	}
	return product, nil
}

func (c *CachedCatalogStore) Create(ctx context.Context, product *domain.Product) (uint, error) {
	id, err := c.CatalogStore.Create(ctx, product)
	if err == nil {
		c.invalidate(ctx)
	}
	return id, err
}

func (c *CachedCatalogStore) UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error {
	err := c.CatalogStore.UpdateStock(ctx, id, delta, currentStock, threshold)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

func (c *CachedCatalogStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	err := c.CatalogStore.Update(ctx, id, patch)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

func (c *CachedCatalogStore) Delete(ctx context.Context, id uint) error {
	err := c.CatalogStore.Delete(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

// invalidate drops every cached barcode lookup
func (c *CachedCatalogStore) invalidate(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, barcodeKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Logger.Warn().Err(err).Msg("Barcode cache scan failed")
		return
	}

	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			logger.Logger.Warn().Err(err).Msg("Barcode cache invalidation failed")
			return
		}
		logger.Logger.Debug().Int("count", len(keys)).Msg("Barcode cache invalidated")
	}
}
