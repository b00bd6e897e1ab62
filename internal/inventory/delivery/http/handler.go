package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/inventory/feed"
	"github.com/tair/stock-scanner/internal/inventory/usecase/command"
	"github.com/tair/stock-scanner/internal/inventory/usecase/query"
	"github.com/tair/stock-scanner/internal/notification"
	"github.com/tair/stock-scanner/internal/scanner"
	"github.com/tair/stock-scanner/internal/session"
	"github.com/tair/stock-scanner/internal/workflow"
	"github.com/tair/stock-scanner/pkg/logger"
)

const maxFrameBytes = 8 << 20

// HealthChecker reports whether the catalog store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ScanHandler serves the scan session, notifications and catalog views
type ScanHandler struct {
	sessions      *session.Manager
	workflow      *workflow.Workflow
	scanner       session.Scanner
	camera        *scanner.PushCamera
	notifications *notification.Queue
	feed          *feed.Feed

	listHandler     *query.ListProductsHandler
	getHandler      *query.GetProductHandler
	lowStockHandler *query.LowStockHandler
	deleteHandler   *command.DeleteProductHandler

	health HealthChecker
}

// NewScanHandler creates a new scan handler
func NewScanHandler(
	sessions *session.Manager,
	wf *workflow.Workflow,
	sc session.Scanner,
	camera *scanner.PushCamera,
	notifications *notification.Queue,
	catalogFeed *feed.Feed,
	listHandler *query.ListProductsHandler,
	getHandler *query.GetProductHandler,
	lowStockHandler *query.LowStockHandler,
	deleteHandler *command.DeleteProductHandler,
	health HealthChecker,
) *ScanHandler {
	return &ScanHandler{
		sessions:        sessions,
		workflow:        wf,
		scanner:         sc,
		camera:          camera,
		notifications:   notifications,
		feed:            catalogFeed,
		listHandler:     listHandler,
		getHandler:      getHandler,
		lowStockHandler: lowStockHandler,
		deleteHandler:   deleteHandler,
		health:          health,
	}
}

type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type sessionState struct {
	Open    bool              `json:"open"`
	Scanner scanner.State     `json:"scanner"`
	Session workflow.Snapshot `json:"session"`
}

func (h *ScanHandler) sessionState() sessionState {
	return sessionState{
		Open:    h.sessions.IsOpen(),
		Scanner: h.scanner.State(),
		Session: h.workflow.Snapshot(),
	}
}

// OpenSession handles POST /api/scan/session
func (h *ScanHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Manual bool `json:"manual"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
			return
		}
	}

	if req.Manual {
		h.sessions.OpenManual()
	} else if err := h.sessions.Open(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Scan session opened",
		Data:    h.sessionState(),
	})
}

// CloseSession handles DELETE /api/scan/session
func (h *ScanHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Close()
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Scan session closed"})
}

// GetSession handles GET /api/scan/session. With ?wait=true it blocks until a
// pending lookup resolves.
func (h *ScanHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := h.workflow.AwaitLookup(r.Context()); err != nil {
			respondError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: h.sessionState()})
}

// UploadFrame handles POST /api/scan/frames with a JPEG or PNG body
func (h *ScanHandler) UploadFrame(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxFrameBytes)
	if err := h.camera.PushEncoded(body); err != nil {
		if errors.Is(err, scanner.ErrStreamClosed) {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SubmitCode handles POST /api/scan/codes for typed barcodes
func (h *ScanHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcode string `json:"barcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	if err := h.sessions.SubmitCode(r.Context(), req.Barcode); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, Response{Success: true, Data: h.sessionState()})
}

// FillForm handles PUT /api/scan/form. The body shape follows the staged mode.
func (h *ScanHandler) FillForm(w http.ResponseWriter, r *http.Request) {
	var fill func() error
	var form interface{}

	switch h.workflow.Mode() {
	case workflow.ModeEditingNew:
		f := &workflow.NewProductForm{}
		form, fill = f, func() error { return h.workflow.FillNew(*f) }
	case workflow.ModeEditingRestock:
		f := &workflow.RestockForm{}
		form, fill = f, func() error { return h.workflow.FillRestock(*f) }
	case workflow.ModeEditingFull:
		f := &workflow.FullEditForm{}
		form, fill = f, func() error { return h.workflow.FillFull(*f) }
	case workflow.ModeAwaitingLookup:
		respondError(w, r, workflow.ErrLookupPending)
		return
	default:
		respondError(w, r, workflow.ErrNothingStaged)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	if err := fill(); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: h.sessionState()})
}

// Commit handles POST /api/scan/commit
func (h *ScanHandler) Commit(w http.ResponseWriter, r *http.Request) {
	result, err := h.workflow.Commit(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Product saved", Data: result})
}

// Cancel handles POST /api/scan/cancel
func (h *ScanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.workflow.Cancel()
	respondJSON(w, http.StatusOK, Response{Success: true, Data: h.sessionState()})
}

// OpenFullEdit handles POST /api/products/{barcode}/edit
func (h *ScanHandler) OpenFullEdit(w http.ResponseWriter, r *http.Request) {
	view, err := h.getHandler.Handle(r.Context(), query.GetProductQuery{Barcode: mux.Vars(r)["barcode"]})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.workflow.OpenFullEdit(view.Product); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: h.sessionState()})
}

// ListProducts handles GET /api/products?search=&status=
func (h *ScanHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.listHandler.Handle(r.Context(), query.ListProductsQuery{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// LowStock handles GET /api/products/low-stock
func (h *ScanHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.lowStockHandler.Handle(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

// GetProduct handles GET /api/products/{barcode}
func (h *ScanHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	view, err := h.getHandler.Handle(r.Context(), query.GetProductQuery{Barcode: mux.Vars(r)["barcode"]})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: view})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ScanHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid product ID"})
		return
	}

	cmd := command.DeleteProductCommand{ID: uint(id), Name: r.URL.Query().Get("name")}
	if err := h.deleteHandler.Handle(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Product deleted successfully"})
}

// ListCategories handles GET /api/categories
func (h *ScanHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{Success: true, Data: domain.Categories})
}

// ListNotifications handles GET /api/notifications
func (h *ScanHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{Success: true, Data: h.notifications.Active()})
}

// DismissNotification handles DELETE /api/notifications/{id}
func (h *ScanHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.notifications.Dismiss(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// ClearNotifications handles DELETE /api/notifications
func (h *ScanHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.notifications.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers all scan and catalog routes. Static product paths
// come before the {barcode} pattern.
func (h *ScanHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/scan/session", h.OpenSession).Methods("POST")
	router.HandleFunc("/api/scan/session", h.GetSession).Methods("GET")
	router.HandleFunc("/api/scan/session", h.CloseSession).Methods("DELETE")
	router.HandleFunc("/api/scan/frames", h.UploadFrame).Methods("POST")
	router.HandleFunc("/api/scan/codes", h.SubmitCode).Methods("POST")
	router.HandleFunc("/api/scan/form", h.FillForm).Methods("PUT")
	router.HandleFunc("/api/scan/commit", h.Commit).Methods("POST")
	router.HandleFunc("/api/scan/cancel", h.Cancel).Methods("POST")

	router.HandleFunc("/api/products", h.ListProducts).Methods("GET")
	router.HandleFunc("/api/products/low-stock", h.LowStock).Methods("GET")
	router.HandleFunc("/api/products/stream", h.StreamProducts).Methods("GET")
	router.HandleFunc("/api/products/{id:[0-9]+}", h.DeleteProduct).Methods("DELETE")
	router.HandleFunc("/api/products/{barcode}", h.GetProduct).Methods("GET")
	router.HandleFunc("/api/products/{barcode}/edit", h.OpenFullEdit).Methods("POST")
	router.HandleFunc("/api/categories", h.ListCategories).Methods("GET")

	router.HandleFunc("/api/notifications", h.ListNotifications).Methods("GET")
	router.HandleFunc("/api/notifications", h.ClearNotifications).Methods("DELETE")
	router.HandleFunc("/api/notifications/{id}", h.DismissNotification).Methods("DELETE")
}

// RegisterHealthCheck registers health check endpoint
func (h *ScanHandler) RegisterHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.health.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Catalog store unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Stock scanner is healthy",
		})
	}).Methods("GET")
}

// statusFor maps domain and workflow errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, scanner.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, scanner.ErrCameraUnavailable),
		errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrLookupPending),
		errors.Is(err, workflow.ErrNothingStaged),
		errors.Is(err, workflow.ErrModeMismatch),
		errors.Is(err, session.ErrNotOpen),
		errors.Is(err, scanner.ErrStreamClosed),
		errors.Is(err, domain.ErrDuplicateBarcode):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := Response{Success: false, Error: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	respondJSON(w, status, resp)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
