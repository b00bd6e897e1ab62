package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/inventory/usecase/query"
	"github.com/tair/stock-scanner/pkg/logger"
)

// StreamProducts handles GET /api/products/stream as server-sent events. Each
// event carries the filtered list and counts. The feed subscription lives
// exactly as long as the request.
func (h *ScanHandler) StreamProducts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Streaming unsupported"})
		return
	}

	var tier domain.StockTier
	if s := r.URL.Query().Get("status"); s != "" && s != query.StatusAll {
		t, err := domain.ParseTier(s)
		if err != nil {
			respondError(w, r, domain.NewValidationError(map[string]string{"status": err.Error()}))
			return
		}
		tier = t
	}
	search := r.URL.Query().Get("search")

	// holds only the newest list; a slow client skips intermediate ones
	updates := make(chan []domain.Product, 1)
	sub := h.feed.Subscribe(func(products []domain.Product) {
		for {
			select {
			case updates <- products:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if len(updates) == 0 {
		if err := h.feed.Refresh(r.Context()); err != nil {
			fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
			flusher.Flush()
		}
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx).Msg("Product stream closed")
			return
		case products := <-updates:
			payload, err := json.Marshal(query.Filter(products, search, tier))
			if err != nil {
				logger.Error(ctx).Err(err).Msg("Failed to encode product list")
				return
			}
			if _, err := fmt.Fprintf(w, "event: products\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
