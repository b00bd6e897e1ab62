package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry identified by its barcode
type Product struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Barcode        string          `json:"barcode" gorm:"not null;uniqueIndex"`
	Name           string          `json:"name" gorm:"not null"`
	Price          decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" gorm:"type:numeric(12,2);not null"`
	Stock          int             `json:"stock" gorm:"not null;default:0"`
	StockThreshold int             `json:"stock_threshold" gorm:"not null;default:0"`
	Category       string          `json:"category" gorm:"index"`
	LastModified   time.Time       `json:"last_modified" gorm:"not null;index"`
	LowStock       bool            `json:"low_stock" gorm:"not null;default:false;index"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// Status returns the derived stock tier of the product
func (p *Product) Status() StockStatus {
	return Classify(p.Stock, p.StockThreshold)
}

// RefreshLowStock recomputes the persisted low-stock flag from stock and threshold
func (p *Product) RefreshLowStock() {
	p.LowStock = IsLow(p.Stock, p.StockThreshold)
}

// ProductPatch carries the fields of a full edit. Nil fields are left untouched.
type ProductPatch struct {
	Barcode        *string
	Name           *string
	Price          *decimal.Decimal
	WholesalePrice *decimal.Decimal
	Stock          *int
	StockThreshold *int
	Category       *string
}

// Apply copies the set fields onto p and recomputes the low-stock flag
func (patch ProductPatch) Apply(p *Product) {
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.WholesalePrice != nil {
		p.WholesalePrice = *patch.WholesalePrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.StockThreshold != nil {
		p.StockThreshold = *patch.StockThreshold
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	p.RefreshLowStock()
}

// CatalogStore is the catalog persistence collaborator.
//
// FindByBarcode returns (nil, nil) when no product carries the code; errors are
// reserved for the store being unreachable. UpdateStock applies delta to
// currentStock and persists the resulting stock together with the low-stock flag
// computed against threshold.
type CatalogStore interface {
	List(ctx context.Context) ([]Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	Create(ctx context.Context, product *Product) (uint, error)
	UpdateStock(ctx context.Context, id uint, delta, currentStock, threshold int) error
	Update(ctx context.Context, id uint, patch ProductPatch) error
	Delete(ctx context.Context, id uint) error
}

// Categories known to the shop. Free-form categories are accepted as well.
var Categories = []string{
	"Aceites",
	"Filtros",
	"Bujías",
	"Frenos",
	"Refrigerantes",
	"Transmisión",
	"Limpieza",
	"Aditivos",
	"Otros",
}
