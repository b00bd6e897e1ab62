package workflow

import (
	"errors"
	"fmt"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

var (
	// ErrBusy is returned when a scan session is already in flight
	ErrBusy = errors.New("scan session already in progress")
	// ErrLookupPending rejects commits and fills before the lookup resolves
	ErrLookupPending = errors.New("catalog lookup still pending")
	ErrNothingStaged = errors.New("no edit staged")
	ErrModeMismatch  = errors.New("form does not match the staged edit")
	// ErrZeroQuantity is a validation failure: a restock must change stock
	ErrZeroQuantity = fmt.Errorf("%w: restock quantity must be nonzero", domain.ErrValidation)
)
