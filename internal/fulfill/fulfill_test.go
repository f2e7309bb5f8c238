package fulfill

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/erazemk/lekarna/internal/db"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/queue"
	"github.com/erazemk/lekarna/internal/store"
)

type fixedEstimator int

func (e fixedEstimator) Estimate(string) int { return int(e) }

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	q := queue.New(database, fixedEstimator(30))
	return NewService(database, q, nil), database
}

func seedPrescription(t *testing.T, database *sql.DB, rawText string) (*model.Prescription, *model.User) {
	t.Helper()
	ctx := context.Background()

	doctor, err := store.CreateUser(ctx, database, "Dr. Novak", "novak@example.com", "x", model.RoleDoctor, "UKC")
	if err != nil {
		t.Fatalf("creating doctor: %v", err)
	}
	patient, err := store.CreateUser(ctx, database, "Ana", "ana@example.com", "x", model.RolePatient, "")
	if err != nil {
		t.Fatalf("creating patient: %v", err)
	}
	prescription, err := store.CreatePrescription(ctx, database, doctor.ID, patient.ID, rawText)
	if err != nil {
		t.Fatalf("creating prescription: %v", err)
	}
	return prescription, patient
}

func TestSubmit(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	if _, err := store.CreateMedicine(ctx, database, "Paracetamol", 5, "tablets", 2); err != nil {
		t.Fatalf("seeding inventory: %v", err)
	}
	prescription, patient := seedPrescription(t, database, "Paracetamol 500mg x 2")

	result, err := svc.Submit(ctx, prescription.ID, patient.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !regexp.MustCompile(`^\d{6}$`).MatchString(result.OTPCode) {
		t.Errorf("expected a 6-digit OTP, got %q", result.OTPCode)
	}
	if result.QueuePosition != 1 {
		t.Errorf("expected queue position 1, got %d", result.QueuePosition)
	}
	if result.EstimatedWaitSeconds != 330 {
		t.Errorf("expected estimate 330 (300 base + 30), got %v", result.EstimatedWaitSeconds)
	}

	// Stock was decremented by the requested count.
	med, err := store.GetMedicine(ctx, database, 1)
	if err != nil {
		t.Fatalf("GetMedicine: %v", err)
	}
	if med.Quantity != 3 {
		t.Errorf("expected remaining stock 3, got %d", med.Quantity)
	}

	order, err := store.GetOrder(ctx, database, result.OrderID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order == nil || order.Status != model.StatusPending {
		t.Errorf("expected a pending order, got %+v", order)
	}
}

func TestSubmitInsufficientStock(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	if _, err := store.CreateMedicine(ctx, database, "Paracetamol", 1, "tablets", 0); err != nil {
		t.Fatalf("seeding inventory: %v", err)
	}
	prescription, patient := seedPrescription(t, database, "Paracetamol 500mg x 3")

	_, err := svc.Submit(ctx, prescription.ID, patient.ID)
	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if len(stockErr.Shortages) != 1 || stockErr.Shortages[0].Available != 1 || stockErr.Shortages[0].Required != 3 {
		t.Errorf("unexpected shortages: %+v", stockErr.Shortages)
	}

	// Nothing was reserved and no order was queued.
	med, _ := store.GetMedicine(ctx, database, 1)
	if med.Quantity != 1 {
		t.Errorf("expected stock untouched at 1, got %d", med.Quantity)
	}
	entries, _ := svc.Queue.List(ctx)
	if len(entries) != 0 {
		t.Errorf("expected empty queue, got %d entries", len(entries))
	}

	// The shortage was recorded for the out-of-stock alert feed.
	events, err := store.ListStockEvents(ctx, database, 10)
	if err != nil {
		t.Fatalf("ListStockEvents: %v", err)
	}
	if len(events) != 1 || events[0].MedicineName != "Paracetamol" {
		t.Errorf("expected one Paracetamol stock event, got %+v", events)
	}
}

func TestSubmitUnknownMedicine(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	prescription, patient := seedPrescription(t, database, "Obscuritol 10mg")

	_, err := svc.Submit(ctx, prescription.ID, patient.ID)
	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError for unmatched medicine, got %v", err)
	}
	if stockErr.Shortages[0].Available != 0 {
		t.Errorf("unmatched medicine should report zero availability, got %+v", stockErr.Shortages)
	}
}

func TestSubmitNoMedicinesFound(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	prescription, patient := seedPrescription(t, database, "patient: Ana\ndate: 2026-01-01")

	if _, err := svc.Submit(ctx, prescription.ID, patient.ID); !errors.Is(err, ErrNoMedicinesFound) {
		t.Errorf("expected ErrNoMedicinesFound, got %v", err)
	}
}

func TestSubmitEmptyText(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	prescription, patient := seedPrescription(t, database, "")

	if _, err := svc.Submit(ctx, prescription.ID, patient.ID); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestSubmitMissingPrescription(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Submit(context.Background(), "no-such-id", 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConfirmPickup(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	if _, err := store.CreateMedicine(ctx, database, "Ibuprofen", 10, "tablets", 2); err != nil {
		t.Fatalf("seeding inventory: %v", err)
	}
	prescription, patient := seedPrescription(t, database, "Ibuprofen 400mg")

	result, err := svc.Submit(ctx, prescription.ID, patient.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	pharmacist, err := store.CreateUser(ctx, database, "Meta", "meta@example.com", "x", model.RolePharmacist, "")
	if err != nil {
		t.Fatalf("creating pharmacist: %v", err)
	}
	if _, err := store.BeginPreparing(ctx, database, result.OrderID, pharmacist.ID); err != nil {
		t.Fatalf("BeginPreparing: %v", err)
	}

	// Wrong OTP leaves everything in place.
	if _, err := svc.ConfirmPickup(ctx, result.OrderID, "000000"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong OTP, got %v", err)
	}
	if pos, _ := svc.Queue.Position(ctx, result.OrderID); pos != 1 {
		t.Errorf("order should still be queued after a failed pickup, got position %d", pos)
	}

	order, err := svc.ConfirmPickup(ctx, result.OrderID, result.OTPCode)
	if err != nil {
		t.Fatalf("ConfirmPickup: %v", err)
	}
	if order.Status != model.StatusPickedUp {
		t.Errorf("expected status %q, got %q", model.StatusPickedUp, order.Status)
	}
	if pos, _ := svc.Queue.Position(ctx, result.OrderID); pos != -1 {
		t.Errorf("expected order gone from queue, got position %d", pos)
	}
}
