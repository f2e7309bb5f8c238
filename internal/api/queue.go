package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/queue"
	"github.com/erazemk/lekarna/internal/store"
)

// QueueHandler exposes the fulfillment queue.
type QueueHandler struct {
	DB    *sql.DB
	Queue *queue.Queue
}

type queueStatusResponse struct {
	Position             int               `json:"position"`
	EstimatedWaitSeconds float64           `json:"estimated_wait_seconds"`
	Items                []model.QueueItem `json:"items,omitempty"`
}

// List handles GET /api/queue for pharmacy staff.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Queue.List(r.Context())
	if err != nil {
		slog.Error("failed to list queue", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list queue")
		return
	}
	if entries == nil {
		entries = []model.QueueEntry{}
	}

	total, err := h.Queue.TotalWait(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read queue")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"entries":            entries,
		"total_wait_seconds": total,
	})
}

// Status handles GET /api/queue/orders/{id}: a patient checks where their
// order is in line. Pharmacists and admins can look up any order.
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	claims := GetClaims(r.Context())

	order, err := store.GetOrder(r.Context(), h.DB, orderID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	if claims.Role == model.RolePatient && order.PatientID != claims.UserID {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	position, err := h.Queue.Position(r.Context(), orderID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read queue")
		return
	}
	if position == -1 {
		jsonError(w, http.StatusNotFound, "order is not queued")
		return
	}

	entry, err := h.Queue.Entry(r.Context(), orderID)
	if err != nil || entry == nil {
		jsonError(w, http.StatusInternalServerError, "failed to read queue")
		return
	}

	jsonResponse(w, http.StatusOK, queueStatusResponse{
		Position:             position,
		EstimatedWaitSeconds: entry.EstimatedSeconds,
		Items:                entry.Items,
	})
}
