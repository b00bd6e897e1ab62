package command

import (
	"context"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/notification"
)

// Notifier surfaces command results to the user
type Notifier interface {
	Success(message string) notification.Notification
	Error(message string) notification.Notification
	LowStock(product string, stock, threshold int) notification.Notification
}

// AlertPublisher forwards low-stock alerts to other systems
type AlertPublisher interface {
	PublishLowStock(ctx context.Context, product domain.Product) error
}
