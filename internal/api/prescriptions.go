package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/lekarna/internal/imaging"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/store"
)

// PrescriptionsHandler handles prescription endpoints.
type PrescriptionsHandler struct {
	DB *sql.DB
}

type createPrescriptionRequest struct {
	PatientID int64  `json:"patient_id"`
	RawText   string `json:"raw_text"`
}

// Create handles POST /api/prescriptions. Only doctors issue prescriptions;
// the raw text is whatever their practice system extracted from the visit.
func (h *PrescriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createPrescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PatientID == 0 {
		jsonError(w, http.StatusBadRequest, "patient_id required")
		return
	}

	patient, err := store.GetUser(r.Context(), h.DB, req.PatientID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if patient == nil || patient.Role != model.RolePatient {
		jsonError(w, http.StatusBadRequest, "unknown patient")
		return
	}

	prescription, err := store.CreatePrescription(r.Context(), h.DB, claims.UserID, req.PatientID, req.RawText)
	if err != nil {
		slog.Error("failed to create prescription", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create prescription")
		return
	}

	slog.Info("prescription created", "doctor", claims.Email, "patient_id", req.PatientID, "prescription", prescription.ID)
	jsonResponse(w, http.StatusCreated, prescription)
}

// List handles GET /api/prescriptions. Patients see their own; doctors and
// pharmacists look up a patient's history with ?patient_id=.
func (h *PrescriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	patientID := claims.UserID
	if claims.Role != model.RolePatient {
		id, err := strconv.ParseInt(r.URL.Query().Get("patient_id"), 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "patient_id query parameter required")
			return
		}
		patientID = id
	}

	prescriptions, err := store.ListPrescriptionsForPatient(r.Context(), h.DB, patientID)
	if err != nil {
		slog.Error("failed to list prescriptions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list prescriptions")
		return
	}
	if prescriptions == nil {
		prescriptions = []model.Prescription{}
	}
	jsonResponse(w, http.StatusOK, prescriptions)
}

// Get handles GET /api/prescriptions/{id}.
func (h *PrescriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	prescription, err := store.GetPrescription(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get prescription", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get prescription")
		return
	}
	if prescription == nil {
		jsonError(w, http.StatusNotFound, "prescription not found")
		return
	}

	// Patients only see their own prescriptions.
	claims := GetClaims(r.Context())
	if claims.Role == model.RolePatient && prescription.PatientID != claims.UserID {
		jsonError(w, http.StatusNotFound, "prescription not found")
		return
	}

	jsonResponse(w, http.StatusOK, prescription)
}

// UploadScan handles PUT /api/prescriptions/{id}/scan. The request body is
// the raw image; it is validated, downscaled and re-encoded before storage.
func (h *PrescriptionsHandler) UploadScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	prescription, err := store.GetPrescription(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if prescription == nil {
		jsonError(w, http.StatusNotFound, "prescription not found")
		return
	}

	scan, err := imaging.ProcessScan(r.Body)
	if err != nil {
		if errors.Is(err, imaging.ErrScanTooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetPrescriptionScan(r.Context(), h.DB, id, scan.Data, scan.MIME); err != nil {
		slog.Error("failed to store scan", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store scan")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("prescription scan uploaded", "user", claims.Email, "prescription", id, "bytes", len(scan.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "scan stored"})
}

// GetScan handles GET /api/prescriptions/{id}/scan.
func (h *PrescriptionsHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	prescription, err := store.GetPrescription(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if prescription == nil {
		jsonError(w, http.StatusNotFound, "prescription not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Role == model.RolePatient && prescription.PatientID != claims.UserID {
		jsonError(w, http.StatusNotFound, "prescription not found")
		return
	}

	data, mime, err := store.GetPrescriptionScan(r.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "no scan stored")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to get scan")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
