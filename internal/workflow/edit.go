package workflow

import "github.com/tair/stock-scanner/internal/inventory/domain"

// Mode of the scan session
type Mode string

const (
	ModeIdle           Mode = "idle"
	ModeAwaitingLookup Mode = "awaiting_lookup"
	ModeEditingNew     Mode = "editing_new"
	ModeEditingRestock Mode = "editing_restock"
	ModeEditingFull    Mode = "editing_full"
)

// Edit is the staged edit. Each variant carries only the fields its mode
// lets the user change.
type Edit interface {
	Mode() Mode
}

// NewProductEdit stages creation of a product for an unknown barcode
type NewProductEdit struct {
	Barcode string          `json:"barcode"`
	Form    *NewProductForm `json:"form,omitempty"`
}

func (NewProductEdit) Mode() Mode { return ModeEditingNew }

// RestockEdit adds quantity to a matched product
type RestockEdit struct {
	Product domain.Product `json:"product"`
	Form    *RestockForm   `json:"form,omitempty"`
}

func (RestockEdit) Mode() Mode { return ModeEditingRestock }

// FullEdit corrects any attribute of an existing product
type FullEdit struct {
	Product domain.Product `json:"product"`
	Form    *FullEditForm  `json:"form,omitempty"`
}

func (FullEdit) Mode() Mode { return ModeEditingFull }

// Snapshot is a read-only view of the session
type Snapshot struct {
	Mode    Mode            `json:"mode"`
	Barcode string          `json:"barcode,omitempty"`
	Target  *domain.Product `json:"target,omitempty"`
	Edit    Edit            `json:"edit,omitempty"`
}

// CommitResult describes a successful commit
type CommitResult struct {
	Mode     Mode               `json:"mode"`
	Product  domain.Product     `json:"product"`
	Change   domain.StockChange `json:"change"`
	LowStock bool               `json:"low_stock"`
}
