package command

import (
	"context"
	"fmt"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/pkg/logger"
)

// DeleteProductCommand represents the command to delete a product
type DeleteProductCommand struct {
	ID   uint
	Name string
}

// DeleteProductHandler handles delete product command
type DeleteProductHandler struct {
	store  domain.CatalogStore
	notify Notifier
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(store domain.CatalogStore, notify Notifier) *DeleteProductHandler {
	return &DeleteProductHandler{store: store, notify: notify}
}

// Handle executes the delete product command. Deletion is a hard remove.
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	if cmd.ID == 0 {
		return domain.NewValidationError(map[string]string{"id": "required"})
	}

	if err := h.store.Delete(ctx, cmd.ID); err != nil {
		h.notify.Error(fmt.Sprintf("Error deleting product: %v", err))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	label := cmd.Name
	if label == "" {
		label = fmt.Sprintf("#%d", cmd.ID)
	}
	h.notify.Success(fmt.Sprintf("Product deleted: %s", label))
	logger.Info(ctx).Uint("product_id", cmd.ID).Msg("Product deleted")
	return nil
}
