package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

// ChangeChannel is the Postgres NOTIFY channel raised on every products write
const ChangeChannel = "catalog_changes"

const notifyTriggerSQL = `
CREATE OR REPLACE FUNCTION notify_catalog_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + ChangeChannel + `', TG_OP);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS products_notify_change ON products;
CREATE TRIGGER products_notify_change
	AFTER INSERT OR UPDATE OR DELETE ON products
	FOR EACH STATEMENT EXECUTE FUNCTION notify_catalog_change();
`

// GormCatalogStore persists products in Postgres
type GormCatalogStore struct {
	db    *gorm.DB
	clock *modClock
}

func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db, clock: newModClock()}
}

// AutoMigrate creates the products table and the change notification trigger
func (r *GormCatalogStore) AutoMigrate() error {
	if err := r.db.AutoMigrate(&domain.Product{}); err != nil {
		return err
	}
	return r.db.Exec(notifyTriggerSQL).Error
}

func (r *GormCatalogStore) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).Order("last_modified DESC").Find(&products).Error
	if err != nil {
		return nil, domain.Unavailable("list products", err)
	}
	return products, nil
}

func (r *GormCatalogStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Unavailable("find by barcode", err)
	}
	return &product, nil
}

func (r *GormCatalogStore) Create(ctx context.Context, product *domain.Product) (uint, error) {
	product.ID = 0
	product.LastModified = r.clock.Next()
	product.RefreshLowStock()

	err := r.db.WithContext(ctx).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, fmt.Errorf("create %s: %w", product.Barcode, domain.ErrDuplicateBarcode)
	}
	if err != nil {
		return 0, domain.Unavailable("create product", err)
	}
	return product.ID, nil
}

func (r *GormCatalogStore) UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error {
	change, err := domain.ApplyStockDelta(currentStock, delta, threshold)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":         change.Current,
			"low_stock":     change.Low(),
			"last_modified": r.clock.Next(),
		})
	if result.Error != nil {
		return domain.Unavailable("update stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCatalogStore) Update(ctx context.Context, id uint, patch domain.ProductPatch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product domain.Product
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}

		patch.Apply(&product)
		product.LastModified = r.clock.Next()
		return tx.Save(&product).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("update %d: %w", id, domain.ErrDuplicateBarcode)
	case err != nil:
		return domain.Unavailable("update product", err)
	}
	return nil
}

func (r *GormCatalogStore) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if result.Error != nil {
		return domain.Unavailable("delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity for health reporting
func (r *GormCatalogStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
