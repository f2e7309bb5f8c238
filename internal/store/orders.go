package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/lekarna/internal/model"
)

// CreateOrder creates a pending fulfillment order with a fresh pickup OTP.
// OTPs are random 6-digit codes; pickup lookup is always by (order id, OTP)
// pair, so collisions between orders are harmless.
func CreateOrder(ctx context.Context, db *sql.DB, prescriptionID string, patientID int64) (*model.Order, error) {
	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generating otp: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO orders (id, prescription_id, patient_id, status, otp_code)
		 VALUES (?, ?, ?, ?, ?)`,
		id, prescriptionID, patientID, model.StatusPending, otp,
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	return GetOrder(ctx, db, id)
}

// GetOrder returns an order by ID.
func GetOrder(ctx context.Context, db *sql.DB, id string) (*model.Order, error) {
	o := &model.Order{}
	err := db.QueryRowContext(ctx,
		`SELECT id, prescription_id, patient_id, pharmacist_id, status, otp_code, created_at, updated_at
		 FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.PrescriptionID, &o.PatientID, &o.PharmacistID, &o.Status, &o.OTPCode, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return o, nil
}

// ListOrdersByStatus returns orders in a given status, oldest first.
func ListOrdersByStatus(ctx context.Context, db *sql.DB, status string) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, prescription_id, patient_id, pharmacist_id, status, otp_code, created_at, updated_at
		 FROM orders WHERE status = ? ORDER BY created_at`, status,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListOrdersForPatient returns a patient's orders, newest first.
func ListOrdersForPatient(ctx context.Context, db *sql.DB, patientID int64) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, prescription_id, patient_id, pharmacist_id, status, otp_code, created_at, updated_at
		 FROM orders WHERE patient_id = ? ORDER BY created_at DESC`, patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing patient orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// BeginPreparing moves a pending order to preparing and assigns the
// pharmacist working on it. The read-check-write runs in one transaction;
// any other current status yields ErrInvalidTransition.
func BeginPreparing(ctx context.Context, db *sql.DB, orderID string, pharmacistID int64) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = ?`, orderID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking order status: %w", err)
	}

	if status != model.StatusPending {
		return nil, fmt.Errorf("cannot prepare order in status %q: %w", status, ErrInvalidTransition)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, pharmacist_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusPreparing, pharmacistID, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}

	return GetOrder(ctx, db, orderID)
}

// ConfirmPickup moves a preparing order to picked_up, keyed by the
// (order id, OTP) pair. A missing order and a wrong OTP both report
// ErrNotFound so callers can't enumerate OTPs. An order that is not yet
// preparing (or already picked up) yields ErrInvalidTransition.
func ConfirmPickup(ctx context.Context, db *sql.DB, orderID, otpCode string) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = ? AND otp_code = ?`, orderID, otpCode,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking order: %w", err)
	}

	if status != model.StatusPreparing {
		return nil, fmt.Errorf("cannot pick up order in status %q: %w", status, ErrInvalidTransition)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusPickedUp, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pickup: %w", err)
	}

	return GetOrder(ctx, db, orderID)
}

// ListStaleOrders returns orders older than model.OrderExpiry that were
// never picked up. Expiry is a reporting view, not a state transition.
func ListStaleOrders(ctx context.Context, db *sql.DB, now time.Time) ([]model.Order, error) {
	cutoff := now.Add(-model.OrderExpiry)
	rows, err := db.QueryContext(ctx,
		`SELECT id, prescription_id, patient_id, pharmacist_id, status, otp_code, created_at, updated_at
		 FROM orders WHERE status != ? AND created_at < ? ORDER BY created_at`,
		model.StatusPickedUp, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stale orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// CountOrdersSince returns how many orders were created after the given time.
func CountOrdersSince(ctx context.Context, db *sql.DB, since time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= ?`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recent orders: %w", err)
	}
	return count, nil
}

// OrderStats summarizes order activity in a date range.
type OrderStats struct {
	From               time.Time      `json:"from"`
	To                 time.Time      `json:"to"`
	Total              int            `json:"total"`
	StatusCounts       map[string]int `json:"status_counts"`
	CurrentQueueLength int            `json:"current_queue_length"`
	AvgWaitSeconds     float64        `json:"avg_wait_seconds"`
}

// GetOrderStats computes status counts, current queue length (pending plus
// preparing), and the average pending-to-pickup wait for orders created in
// [from, to].
func GetOrderStats(ctx context.Context, db *sql.DB, from, to time.Time) (*OrderStats, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT status, created_at, updated_at FROM orders
		 WHERE created_at >= ? AND created_at <= ?`, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("querying order stats: %w", err)
	}
	defer rows.Close()

	stats := &OrderStats{
		From: from,
		To:   to,
		StatusCounts: map[string]int{
			model.StatusPending:   0,
			model.StatusPreparing: 0,
			model.StatusPickedUp:  0,
		},
	}

	var waitTotal float64
	var waitCount int
	for rows.Next() {
		var status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning order stats: %w", err)
		}

		stats.Total++
		stats.StatusCounts[status]++
		if status == model.StatusPickedUp {
			waitTotal += updatedAt.Sub(createdAt).Seconds()
			waitCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.CurrentQueueLength = stats.StatusCounts[model.StatusPending] + stats.StatusCounts[model.StatusPreparing]
	if waitCount > 0 {
		stats.AvgWaitSeconds = waitTotal / float64(waitCount)
	}
	return stats, nil
}

// generateOTP creates a random 6-digit pickup code.
func generateOTP() (string, error) {
	const digits = "0123456789"
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.PrescriptionID, &o.PatientID, &o.PharmacistID, &o.Status, &o.OTPCode, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
