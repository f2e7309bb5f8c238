// Package queue implements the packing-line queue: an ordered sequence of
// in-flight orders with cumulative estimated completion times, modeling a
// single packing lane serving FIFO.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/erazemk/lekarna/internal/model"
)

// BaseBufferSeconds is the fixed head-of-queue buffer applied when the
// first order enters an empty queue.
const BaseBufferSeconds = 300

// Estimator produces a per-item packing duration in seconds for a packing
// kind. Injectable so tests can substitute deterministic values.
type Estimator interface {
	Estimate(kind string) int
}

// RandomEstimator draws uniform inclusive durations per item: edge items
// (liquids, injectables, topicals) 30-60 s, regular items 15-30 s.
type RandomEstimator struct{}

func (RandomEstimator) Estimate(kind string) int {
	if kind == model.KindEdge {
		return 30 + rand.IntN(31)
	}
	return 15 + rand.IntN(16)
}

// Queue is the shared fulfillment queue. Entries are persisted so the line
// survives restarts; every read-modify-write runs under the mutex and in a
// single transaction, so concurrent enqueues can't both read the same tail.
type Queue struct {
	mu  sync.Mutex
	db  *sql.DB
	est Estimator
}

// New creates a queue over the given database. A nil estimator gets the
// production RandomEstimator.
func New(db *sql.DB, est Estimator) *Queue {
	if est == nil {
		est = RandomEstimator{}
	}
	return &Queue{db: db, est: est}
}

// Enqueue appends an order to the tail. The entry's cumulative estimate is
// the tail entry's estimate (or the base buffer when the queue is empty)
// plus this order's own packing time, so completion is bounded below by
// everyone ahead finishing first.
func (q *Queue) Enqueue(ctx context.Context, orderID string, items []model.QueueItem) (*model.QueueEntry, error) {
	packing := 0
	for _, item := range items {
		packing += q.est.Estimate(item.Kind)
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding queue items: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tail := float64(BaseBufferSeconds)
	err = tx.QueryRowContext(ctx,
		`SELECT estimated_seconds FROM queue_entries ORDER BY id DESC LIMIT 1`,
	).Scan(&tail)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("reading queue tail: %w", err)
	}

	queueID := uuid.NewString()
	estimated := tail + float64(packing)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO queue_entries (queue_id, order_id, items, estimated_seconds)
		 VALUES (?, ?, ?, ?)`,
		queueID, orderID, string(itemsJSON), estimated,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueueing order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing enqueue: %w", err)
	}

	return q.Entry(ctx, orderID)
}

// Position returns the 1-based queue position of an order, or -1 if the
// order is not queued (already removed or never enqueued).
func (q *Queue) Position(ctx context.Context, orderID string) (int, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT order_id FROM queue_entries ORDER BY id`,
	)
	if err != nil {
		return 0, fmt.Errorf("reading queue: %w", err)
	}
	defer rows.Close()

	pos := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scanning queue entry: %w", err)
		}
		pos++
		if id == orderID {
			return pos, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return -1, nil
}

// TotalWait returns the tail entry's cumulative estimate, or 0 when empty.
func (q *Queue) TotalWait(ctx context.Context) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx,
		`SELECT estimated_seconds FROM queue_entries ORDER BY id DESC LIMIT 1`,
	).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading queue tail: %w", err)
	}
	return total, nil
}

// Remove deletes an order's queue entry (pickup or cancellation). Estimates
// of entries behind it are deliberately not recomputed: they are advisory,
// and shrinking times already reported to callers would be misleading.
func (q *Queue) Remove(ctx context.Context, orderID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, err := q.db.ExecContext(ctx,
		`DELETE FROM queue_entries WHERE order_id = ?`, orderID,
	)
	if err != nil {
		return fmt.Errorf("removing queue entry: %w", err)
	}
	return nil
}

// List returns all queue entries in line order.
func (q *Queue) List(ctx context.Context) ([]model.QueueEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT queue_id, order_id, items, enqueued_at, estimated_seconds
		 FROM queue_entries ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing queue: %w", err)
	}
	defer rows.Close()

	var entries []model.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Entry returns the queue entry for an order, or nil if it is not queued.
func (q *Queue) Entry(ctx context.Context, orderID string) (*model.QueueEntry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT queue_id, order_id, items, enqueued_at, estimated_seconds
		 FROM queue_entries WHERE order_id = ?`, orderID,
	)

	entry := &model.QueueEntry{}
	var itemsJSON string
	err := row.Scan(&entry.QueueID, &entry.OrderID, &itemsJSON, &entry.EnqueuedAt, &entry.EstimatedSeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting queue entry: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &entry.Items); err != nil {
		return nil, fmt.Errorf("decoding queue items: %w", err)
	}
	return entry, nil
}

func scanEntry(rows *sql.Rows) (*model.QueueEntry, error) {
	entry := &model.QueueEntry{}
	var itemsJSON string
	if err := rows.Scan(&entry.QueueID, &entry.OrderID, &itemsJSON, &entry.EnqueuedAt, &entry.EstimatedSeconds); err != nil {
		return nil, fmt.Errorf("scanning queue entry: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &entry.Items); err != nil {
		return nil, fmt.Errorf("decoding queue items: %w", err)
	}
	return entry, nil
}
