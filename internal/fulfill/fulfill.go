// Package fulfill ties prescription text extraction, catalog matching,
// stock reservation and queue placement into a single submission flow.
package fulfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/lekarna/internal/extract"
	"github.com/erazemk/lekarna/internal/match"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/queue"
	"github.com/erazemk/lekarna/internal/store"
)

var (
	// ErrExtractionFailed means the prescription text could not be read.
	ErrExtractionFailed = errors.New("could not extract prescription text")

	// ErrNoMedicinesFound means the text yielded no recognizable line items.
	ErrNoMedicinesFound = errors.New("no medicines found in prescription")
)

// TextExtractor produces the raw text of a stored prescription.
type TextExtractor interface {
	ExtractText(ctx context.Context, prescriptionID string) (string, error)
}

// StoredTextExtractor reads the text captured when the prescription
// was created.
type StoredTextExtractor struct {
	DB *sql.DB
}

func (e StoredTextExtractor) ExtractText(ctx context.Context, prescriptionID string) (string, error) {
	text, err := store.GetPrescriptionText(ctx, e.DB, prescriptionID)
	if err != nil {
		return "", err
	}
	return text, nil
}

// SubmitResult is what the patient gets back after handing in a prescription.
type SubmitResult struct {
	OrderID              string  `json:"order_id"`
	OTPCode              string  `json:"otp_code"`
	QueuePosition        int     `json:"queue_position"`
	EstimatedWaitSeconds float64 `json:"estimated_wait_seconds"`
}

// Service runs the fulfillment pipeline.
type Service struct {
	DB        *sql.DB
	Queue     *queue.Queue
	Extractor TextExtractor
}

func NewService(db *sql.DB, q *queue.Queue, extractor TextExtractor) *Service {
	if extractor == nil {
		extractor = StoredTextExtractor{DB: db}
	}
	return &Service{DB: db, Queue: q, Extractor: extractor}
}

// Submit processes a prescription for a patient: extracts line items,
// matches them against the catalog, reserves stock, creates the order
// and places it in the fulfillment queue.
//
// On insufficient stock it returns a *store.InsufficientStockError and
// leaves inventory untouched.
func (s *Service) Submit(ctx context.Context, prescriptionID string, patientID int64) (*SubmitResult, error) {
	raw, err := s.Extractor.ExtractText(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	text := extract.Clean(raw)
	if text == "" {
		return nil, ErrExtractionFailed
	}

	items := extract.LineItems(text)
	if len(items) == 0 {
		return nil, ErrNoMedicinesFound
	}

	snapshot, err := store.ListInventory(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}

	reservations := make([]store.Reservation, 0, len(items))
	for _, result := range match.Catalog(items, snapshot) {
		r := store.Reservation{RawName: result.LineItem.Name, Required: result.LineItem.Quantity}
		if result.Medicine != nil {
			r.MedicineID = result.Medicine.ID
		}
		reservations = append(reservations, r)
	}

	queueItems, err := store.Reserve(ctx, s.DB, prescriptionID, reservations)
	if err != nil {
		return nil, err
	}

	order, err := store.CreateOrder(ctx, s.DB, prescriptionID, patientID)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	entry, err := s.Queue.Enqueue(ctx, order.ID, queueItems)
	if err != nil {
		return nil, fmt.Errorf("enqueueing order: %w", err)
	}

	position, err := s.Queue.Position(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("finding queue position: %w", err)
	}

	return &SubmitResult{
		OrderID:              order.ID,
		OTPCode:              order.OTPCode,
		QueuePosition:        position,
		EstimatedWaitSeconds: entry.EstimatedSeconds,
	}, nil
}

// ConfirmPickup verifies the OTP, marks the order picked up and drops
// it from the queue.
func (s *Service) ConfirmPickup(ctx context.Context, orderID, otpCode string) (*model.Order, error) {
	order, err := store.ConfirmPickup(ctx, s.DB, orderID, otpCode)
	if err != nil {
		return nil, err
	}

	if err := s.Queue.Remove(ctx, orderID); err != nil {
		return nil, fmt.Errorf("removing order from queue: %w", err)
	}

	return order, nil
}
