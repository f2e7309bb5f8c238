package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/store"
)

// HighVolumeWindow is the lookback for the order-surge alert.
const HighVolumeWindow = 5 * time.Minute

// HighVolumeThreshold is how many orders within the window count as a surge.
const HighVolumeThreshold = 10

// AlertsHandler surfaces operational alerts and statistics for pharmacy staff.
type AlertsHandler struct {
	DB *sql.DB
}

// StockEvents handles GET /api/alerts/stock, the recent failed-reservation
// feed used for reordering.
func (h *AlertsHandler) StockEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := store.ListStockEvents(r.Context(), h.DB, limit)
	if err != nil {
		slog.Error("failed to list stock events", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list stock events")
		return
	}
	if events == nil {
		events = []model.StockEvent{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// StaleOrders handles GET /api/alerts/stale: orders never picked up within
// the expiry window, candidates for restocking.
func (h *AlertsHandler) StaleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListStaleOrders(r.Context(), h.DB, time.Now())
	if err != nil {
		slog.Error("failed to list stale orders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list stale orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// HighVolume handles GET /api/alerts/volume: reports whether order intake
// over the last few minutes crossed the surge threshold.
func (h *AlertsHandler) HighVolume(w http.ResponseWriter, r *http.Request) {
	count, err := store.CountOrdersSince(r.Context(), h.DB, time.Now().Add(-HighVolumeWindow))
	if err != nil {
		slog.Error("failed to count recent orders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to count recent orders")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"window_seconds": int(HighVolumeWindow.Seconds()),
		"orders":         count,
		"high_volume":    count >= HighVolumeThreshold,
	})
}

// Stats handles GET /api/stats with optional ?from= and ?to= RFC 3339
// bounds (default: the last 24 hours).
func (h *AlertsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = t
	}

	stats, err := store.GetOrderStats(r.Context(), h.DB, from, to)
	if err != nil {
		slog.Error("failed to compute stats", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
