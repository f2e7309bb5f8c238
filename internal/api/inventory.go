package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/lekarna/internal/match"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/store"
)

// InventoryHandler handles medicine catalog endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type createMedicineRequest struct {
	Name              string `json:"name"`
	Quantity          int    `json:"quantity"`
	Unit              string `json:"unit"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// List handles GET /api/inventory. An optional ?q= parameter fuzzy-matches
// a single medicine name against the catalog.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	meds, err := store.ListInventory(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list inventory", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		med, confidence := match.Lookup(q, meds)
		if med == nil {
			jsonError(w, http.StatusNotFound, "no matching medicine")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"medicine":   med,
			"confidence": confidence,
		})
		return
	}

	if meds == nil {
		meds = []model.Medicine{}
	}
	jsonResponse(w, http.StatusOK, meds)
}

// Create handles POST /api/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMedicineRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	med, err := store.CreateMedicine(r.Context(), h.DB, req.Name, req.Quantity, req.Unit, req.LowStockThreshold)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("medicine created", "admin", claims.Email, "medicine", med.Name, "quantity", med.Quantity)
	jsonResponse(w, http.StatusCreated, med)
}

// Get handles GET /api/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}

	med, err := store.GetMedicine(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get medicine", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get medicine")
		return
	}
	if med == nil {
		jsonError(w, http.StatusNotFound, "medicine not found")
		return
	}

	jsonResponse(w, http.StatusOK, med)
}

// UpdateQuantity handles PUT /api/inventory/{id}/quantity, an absolute
// stock correction.
func (h *InventoryHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}

	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateMedicineQuantity(r.Context(), h.DB, id, req.Quantity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "medicine not found")
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	med, _ := store.GetMedicine(r.Context(), h.DB, id)
	claims := GetClaims(r.Context())
	slog.Info("stock corrected", "admin", claims.Email, "medicine_id", id, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, med)
}

// Delete handles DELETE /api/inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}

	if err := store.DeleteMedicine(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "medicine not found")
			return
		}
		slog.Error("failed to delete medicine", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete medicine")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("medicine deleted", "admin", claims.Email, "medicine_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "medicine deleted"})
}

// Import handles POST /api/inventory/import with a CSV request body.
// Existing medicines get the imported quantity added to their stock.
func (h *InventoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	n, err := store.ImportCSV(r.Context(), h.DB, r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("inventory imported", "admin", claims.Email, "rows", n)
	jsonResponse(w, http.StatusOK, map[string]int{"imported": n})
}

// LowStock handles GET /api/inventory/low-stock.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	meds, err := store.ListLowStock(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list low stock", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list low stock")
		return
	}
	if meds == nil {
		meds = []model.Medicine{}
	}
	jsonResponse(w, http.StatusOK, meds)
}
