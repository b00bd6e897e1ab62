package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAlertEvent is published when a product drops below its threshold
type StockAlertEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	ProductID uint            `json:"product_id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Stock     int             `json:"stock"`
	Threshold int             `json:"threshold"`
	Tier      string          `json:"tier"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductSoldEvent is consumed from the point of sale
type ProductSoldEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Barcode   string    `json:"barcode"`
	Quantity  int       `json:"quantity"`
	SaleID    string    `json:"sale_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeStockLow    = "stock.low"
	EventTypeProductSold = "product.sold"
)

// Kafka topics
const (
	TopicStockAlerts = "stock-alerts"
	TopicProductSold = "product-sold"
)
