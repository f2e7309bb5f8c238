package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lekarna/internal/fulfill"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/store"
)

// PharmacyHandler handles the fulfillment flow: submitting prescriptions,
// claiming orders for preparation and confirming pickups.
type PharmacyHandler struct {
	DB      *sql.DB
	Service *fulfill.Service
}

type submitRequest struct {
	PrescriptionID string `json:"prescription_id"`
}

type pickupRequest struct {
	OTPCode string `json:"otp_code"`
}

// Submit handles POST /api/pharmacy/submit. The patient hands in one of
// their prescriptions; on success they get the order, its pickup OTP and
// a queue estimate.
func (h *PharmacyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PrescriptionID == "" {
		jsonError(w, http.StatusBadRequest, "prescription_id required")
		return
	}

	prescription, err := store.GetPrescription(r.Context(), h.DB, req.PrescriptionID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if prescription == nil || prescription.PatientID != claims.UserID {
		jsonError(w, http.StatusNotFound, "prescription not found")
		return
	}

	result, err := h.Service.Submit(r.Context(), req.PrescriptionID, claims.UserID)
	if err != nil {
		var stockErr *store.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			jsonResponse(w, http.StatusConflict, map[string]any{
				"error":     "insufficient stock",
				"shortages": stockErr.Shortages,
			})
		case errors.Is(err, fulfill.ErrNoMedicinesFound),
			errors.Is(err, fulfill.ErrExtractionFailed):
			jsonError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, store.ErrNotFound):
			jsonError(w, http.StatusNotFound, "prescription not found")
		default:
			slog.Error("submission failed", "prescription", req.PrescriptionID, "error", err)
			jsonError(w, http.StatusInternalServerError, "submission failed")
		}
		return
	}

	slog.Info("prescription submitted",
		"patient", claims.Email,
		"order", result.OrderID,
		"position", result.QueuePosition,
		"estimate_seconds", result.EstimatedWaitSeconds,
	)
	jsonResponse(w, http.StatusCreated, result)
}

// ListOrders handles GET /api/pharmacy/orders for pharmacists, filtered by
// ?status= (default pending).
func (h *PharmacyHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.StatusPending
	}
	if status != model.StatusPending && status != model.StatusPreparing && status != model.StatusPickedUp {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	orders, err := store.ListOrdersByStatus(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// ListMine handles GET /api/pharmacy/orders/mine for patients.
func (h *PharmacyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	orders, err := store.ListOrdersForPatient(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list patient orders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Prepare handles POST /api/pharmacy/orders/{id}/prepare: a pharmacist
// claims a pending order and starts packing it.
func (h *PharmacyHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	orderID := r.PathValue("id")

	order, err := store.BeginPreparing(r.Context(), h.DB, orderID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			jsonError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, store.ErrInvalidTransition):
			jsonError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to claim order", "order", orderID, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to claim order")
		}
		return
	}

	slog.Info("order claimed", "pharmacist", claims.Email, "order", orderID)
	jsonResponse(w, http.StatusOK, order)
}

// Pickup handles POST /api/pharmacy/orders/{id}/pickup. The patient reads
// their OTP to the pharmacist; a wrong code is indistinguishable from an
// unknown order.
func (h *PharmacyHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	orderID := r.PathValue("id")

	var req pickupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OTPCode == "" {
		jsonError(w, http.StatusBadRequest, "otp_code required")
		return
	}

	order, err := h.Service.ConfirmPickup(r.Context(), orderID, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			jsonError(w, http.StatusNotFound, "order not found or wrong code")
		case errors.Is(err, store.ErrInvalidTransition):
			jsonError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to confirm pickup", "order", orderID, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to confirm pickup")
		}
		return
	}

	slog.Info("order picked up", "pharmacist", claims.Email, "order", orderID)
	jsonResponse(w, http.StatusOK, order)
}
