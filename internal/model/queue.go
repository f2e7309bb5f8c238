package model

import "time"

// QueueEntry is an order's place in the packing line. Estimated seconds are
// cumulative: they include everyone ahead at enqueue time and are not
// recomputed when earlier entries leave the queue.
type QueueEntry struct {
	QueueID          string      `json:"queue_id"`
	OrderID          string      `json:"order_id"`
	Items            []QueueItem `json:"items"`
	EnqueuedAt       time.Time   `json:"enqueued_at"`
	EstimatedSeconds float64     `json:"estimated_seconds"`
}

// QueueItem is a reserved medicine carried by a queue entry. Names are
// denormalized at enqueue time so later catalog changes don't alter a
// queued estimate.
type QueueItem struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Packing kinds.
const (
	KindRegular = "regular"
	KindEdge    = "edge"
)
