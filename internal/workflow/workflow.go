package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/metrics"
	"github.com/tair/stock-scanner/internal/notification"
	"github.com/tair/stock-scanner/pkg/logger"
)

var tracer = otel.Tracer("scan-workflow")

// Notifier surfaces workflow results to the user
type Notifier interface {
	Success(message string) notification.Notification
	Error(message string) notification.Notification
	Warning(message string) notification.Notification
	Info(message string) notification.Notification
	LowStock(product string, stock, threshold int) notification.Notification
}

// AlertPublisher forwards low-stock alerts to other systems
type AlertPublisher interface {
	PublishLowStock(ctx context.Context, product domain.Product) error
}

// Workflow turns detected barcodes into staged product edits and commits them.
// Only one session is in flight at a time; every session starts and ends in
// ModeIdle.
type Workflow struct {
	store  domain.CatalogStore
	notify Notifier
	alerts AlertPublisher
	log    zerolog.Logger

	mu         sync.Mutex
	mode       Mode
	barcode    string
	edit       Edit
	generation uint64
	committing bool

	lookupDone   chan struct{}
	lookupCancel context.CancelFunc
}

// Option configures a Workflow
type Option func(*Workflow)

// WithAlertPublisher publishes low-stock alerts after successful commits
func WithAlertPublisher(p AlertPublisher) Option {
	return func(w *Workflow) { w.alerts = p }
}

func New(store domain.CatalogStore, notify Notifier, opts ...Option) *Workflow {
	w := &Workflow{
		store:  store,
		notify: notify,
		mode:   ModeIdle,
		log:    logger.Component("scan_workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Mode returns the current session mode
func (w *Workflow) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Snapshot returns a copy of the session state
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{Mode: w.mode, Barcode: w.barcode}
	switch e := w.edit.(type) {
	case *NewProductEdit:
		c := *e
		s.Edit = c
	case *RestockEdit:
		c := *e
		s.Edit = c
		s.Target = &c.Product
	case *FullEdit:
		c := *e
		s.Edit = c
		s.Target = &c.Product
	}
	return s
}

// OnCodeDetected stages an edit for code in ModeAwaitingLookup and resolves it
// against the catalog in the background. The store read never blocks the caller.
func (w *Workflow) OnCodeDetected(ctx context.Context, code string) error {
	if !domain.IsValidBarcode(code) {
		return domain.NewValidationError(map[string]string{"barcode": "must be 8 to 13 digits"})
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode != ModeIdle {
		metrics.WorkflowOutcomes.WithLabelValues("scan", "busy").Inc()
		return ErrBusy
	}

	w.generation++
	gen := w.generation
	w.setMode(ModeAwaitingLookup)
	w.barcode = code
	w.edit = nil

	lookupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	w.lookupCancel = cancel
	w.lookupDone = done

	go w.lookup(lookupCtx, gen, code, done)
	return nil
}

func (w *Workflow) lookup(ctx context.Context, gen uint64, code string, done chan struct{}) {
	defer close(done)

	ctx, span := tracer.Start(ctx, "workflow.Lookup",
		trace.WithAttributes(attribute.String("product.barcode", code)),
	)
	defer span.End()

	product, err := w.store.FindByBarcode(ctx, code)

	w.mu.Lock()
	if gen != w.generation {
		// session was cancelled while the lookup was in flight
		w.mu.Unlock()
		span.SetAttributes(attribute.Bool("lookup.discarded", true))
		return
	}
	w.lookupCancel = nil

	switch {
	case err != nil:
		w.reset()
	case product != nil:
		w.setMode(ModeEditingRestock)
		w.edit = &RestockEdit{Product: *product}
	default:
		w.setMode(ModeEditingNew)
		w.edit = &NewProductEdit{Barcode: code}
	}
	w.mu.Unlock()

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.WorkflowOutcomes.WithLabelValues("lookup", "error").Inc()
		logger.Error(ctx).Err(err).Str("barcode", code).Msg("Catalog lookup failed")
		w.notify.Error(fmt.Sprintf("Could not look up product %s: %v", code, err))
	case product != nil:
		span.SetAttributes(attribute.Bool("result.found", true))
		metrics.WorkflowOutcomes.WithLabelValues("lookup", "found").Inc()
		w.notify.Info(fmt.Sprintf("Product found: %s", product.Name))
	default:
		span.SetAttributes(attribute.Bool("result.found", false))
		metrics.WorkflowOutcomes.WithLabelValues("lookup", "new").Inc()
		w.notify.Info("New product, fill in the details")
	}
}

// AwaitLookup blocks until the pending lookup of the current session resolves
func (w *Workflow) AwaitLookup(ctx context.Context) error {
	w.mu.Lock()
	done := w.lookupDone
	w.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OpenFullEdit stages an unrestricted edit of product without a lookup
func (w *Workflow) OpenFullEdit(product domain.Product) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode != ModeIdle {
		return ErrBusy
	}
	if product.ID == 0 {
		return domain.ErrNotFound
	}

	w.generation++
	form := FullEditFormFrom(product)
	w.setMode(ModeEditingFull)
	w.barcode = product.Barcode
	w.edit = &FullEdit{Product: product, Form: &form}
	return nil
}

// FillNew sets the form of a new-product edit
func (w *Workflow) FillNew(form NewProductForm) error {
	return w.fill(func(e Edit) bool {
		n, ok := e.(*NewProductEdit)
		if ok {
			n.Form = &form
		}
		return ok
	})
}

// FillRestock sets the quantity of a restock edit
func (w *Workflow) FillRestock(form RestockForm) error {
	return w.fill(func(e Edit) bool {
		r, ok := e.(*RestockEdit)
		if ok {
			r.Form = &form
		}
		return ok
	})
}

// FillFull sets the form of a full edit
func (w *Workflow) FillFull(form FullEditForm) error {
	return w.fill(func(e Edit) bool {
		f, ok := e.(*FullEdit)
		if ok {
			f.Form = &form
		}
		return ok
	})
}

func (w *Workflow) fill(set func(Edit) bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.committing:
		return ErrBusy
	case w.mode == ModeAwaitingLookup:
		return ErrLookupPending
	case w.edit == nil:
		return ErrNothingStaged
	case !set(w.edit):
		return ErrModeMismatch
	}
	return nil
}

// Commit validates the staged edit and dispatches exactly one store mutation.
// Validation failures never reach the store. On a store failure the staged
// edit is kept so the user can retry.
func (w *Workflow) Commit(ctx context.Context) (*CommitResult, error) {
	w.mu.Lock()
	switch {
	case w.committing:
		w.mu.Unlock()
		return nil, ErrBusy
	case w.mode == ModeAwaitingLookup:
		w.mu.Unlock()
		return nil, ErrLookupPending
	case w.edit == nil:
		w.mu.Unlock()
		return nil, ErrNothingStaged
	}
	edit := cloneEdit(w.edit)
	gen := w.generation
	w.committing = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.committing = false
		w.mu.Unlock()
	}()

	ctx, span := tracer.Start(ctx, "workflow.Commit",
		trace.WithAttributes(attribute.String("workflow.mode", string(edit.Mode()))),
	)
	defer span.End()

	result, err := w.dispatch(ctx, edit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.reportFailure(ctx, edit, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("product.id", int(result.Product.ID)),
		attribute.Bool("result.low_stock", result.LowStock),
	)
	metrics.WorkflowOutcomes.WithLabelValues("commit", "success").Inc()

	w.mu.Lock()
	if w.generation == gen {
		w.reset()
	}
	w.mu.Unlock()

	w.announce(ctx, result)
	return result, nil
}

// dispatch validates then runs the store call for the edit variant
func (w *Workflow) dispatch(ctx context.Context, edit Edit) (*CommitResult, error) {
	switch e := edit.(type) {
	case *NewProductEdit:
		return w.commitNew(ctx, e)
	case *RestockEdit:
		return w.commitRestock(ctx, e)
	case *FullEdit:
		return w.commitFull(ctx, e)
	}
	return nil, ErrNothingStaged
}

func (w *Workflow) commitNew(ctx context.Context, e *NewProductEdit) (*CommitResult, error) {
	if e.Form == nil {
		return nil, domain.NewValidationError(map[string]string{"form": "required"})
	}
	if err := validateForm(e.Form); err != nil {
		return nil, err
	}

	p := domain.Product{
		Barcode:        e.Barcode,
		Name:           e.Form.Name,
		Price:          *e.Form.Price,
		WholesalePrice: *e.Form.WholesalePrice,
		Stock:          *e.Form.Stock,
		StockThreshold: *e.Form.StockThreshold,
		Category:       e.Form.Category,
	}
	p.RefreshLowStock()

	id, err := w.store.Create(ctx, &p)
	if err != nil {
		return nil, err
	}
	p.ID = id

	return &CommitResult{
		Mode:     ModeEditingNew,
		Product:  p,
		Change:   domain.StockChange{Previous: 0, Current: p.Stock, Threshold: p.StockThreshold},
		LowStock: p.LowStock,
	}, nil
}

func (w *Workflow) commitRestock(ctx context.Context, e *RestockEdit) (*CommitResult, error) {
	if e.Form == nil || e.Form.Quantity == 0 {
		return nil, ErrZeroQuantity
	}

	p := e.Product
	change, err := domain.ApplyStockDelta(p.Stock, e.Form.Quantity, p.StockThreshold)
	if err != nil {
		return nil, err
	}

	if err := w.store.UpdateStock(ctx, p.ID, e.Form.Quantity, p.Stock, p.StockThreshold); err != nil {
		return nil, err
	}

	p.Stock = change.Current
	p.RefreshLowStock()
	return &CommitResult{
		Mode:     ModeEditingRestock,
		Product:  p,
		Change:   change,
		LowStock: change.Low(),
	}, nil
}

func (w *Workflow) commitFull(ctx context.Context, e *FullEdit) (*CommitResult, error) {
	if e.Form == nil {
		return nil, domain.NewValidationError(map[string]string{"form": "required"})
	}
	if err := validateForm(e.Form); err != nil {
		return nil, err
	}

	patch := e.Form.Patch()
	if err := w.store.Update(ctx, e.Product.ID, patch); err != nil {
		return nil, err
	}

	p := e.Product
	previous := p.Stock
	patch.Apply(&p)
	return &CommitResult{
		Mode:     ModeEditingFull,
		Product:  p,
		Change:   domain.StockChange{Previous: previous, Current: p.Stock, Threshold: p.StockThreshold},
		LowStock: p.LowStock,
	}, nil
}

func (w *Workflow) reportFailure(ctx context.Context, edit Edit, err error) {
	if errors.Is(err, domain.ErrValidation) {
		metrics.WorkflowOutcomes.WithLabelValues("commit", "invalid").Inc()
		logger.Warn(ctx).Err(err).Str("mode", string(edit.Mode())).Msg("Staged edit rejected")
		if errors.Is(err, ErrZeroQuantity) {
			w.notify.Warning("Enter a quantity to add")
			return
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) && verr.Fields["quantity"] != "" {
			w.notify.Warning("Stock cannot go below zero")
			return
		}
		w.notify.Warning("Please complete all required fields")
		return
	}

	metrics.WorkflowOutcomes.WithLabelValues("commit", "error").Inc()
	logger.Error(ctx).Err(err).Str("mode", string(edit.Mode())).Msg("Commit failed")
	switch {
	case errors.Is(err, domain.ErrDuplicateBarcode):
		w.notify.Error("A product with this barcode already exists")
	case errors.Is(err, domain.ErrNotFound):
		w.notify.Error("Product no longer exists")
	default:
		w.notify.Error(fmt.Sprintf("Error saving product: %v", err))
	}
}

// announce emits the success notification and, when the resulting stock is
// low, the low-stock warning and alert. Alerting never fails the commit.
func (w *Workflow) announce(ctx context.Context, r *CommitResult) {
	p := r.Product
	switch r.Mode {
	case ModeEditingNew:
		w.notify.Success(fmt.Sprintf("Product created: %s", p.Name))
	case ModeEditingRestock:
		w.notify.Success(fmt.Sprintf("Stock updated: %s (%+d, now %d)", p.Name, r.Change.Current-r.Change.Previous, p.Stock))
	case ModeEditingFull:
		w.notify.Success(fmt.Sprintf("Product updated: %s", p.Name))
	}

	logger.Info(ctx).
		Uint("product_id", p.ID).
		Str("barcode", p.Barcode).
		Str("mode", string(r.Mode)).
		Int("stock", p.Stock).
		Int("threshold", p.StockThreshold).
		Msg("Product committed")

	if !r.LowStock {
		return
	}
	w.notify.LowStock(p.Name, p.Stock, p.StockThreshold)

	if w.alerts == nil {
		return
	}
	if err := w.alerts.PublishLowStock(ctx, p); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", p.ID).Msg("Failed to publish low-stock alert")
	}
}

// Cancel discards the staged edit and any pending lookup
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode == ModeIdle {
		return
	}
	w.generation++
	w.reset()
}

// reset returns to idle. Callers hold w.mu.
func (w *Workflow) reset() {
	if w.lookupCancel != nil {
		w.lookupCancel()
		w.lookupCancel = nil
	}
	w.barcode = ""
	w.edit = nil
	w.setMode(ModeIdle)
}

func (w *Workflow) setMode(m Mode) {
	if w.mode == m {
		return
	}
	w.log.Debug().Str("from", string(w.mode)).Str("to", string(m)).Str("barcode", w.barcode).Msg("Mode changed")
	w.mode = m
}

func cloneEdit(e Edit) Edit {
	switch v := e.(type) {
	case *NewProductEdit:
		c := *v
		return &c
	case *RestockEdit:
		c := *v
		return &c
	case *FullEdit:
		c := *v
		return &c
	}
	return e
}
