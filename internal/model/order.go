package model

import "time"

// Order is a prescription submitted for fulfillment. Status only ever moves
// forward: pending -> preparing -> picked_up.
type Order struct {
	ID             string     `json:"id"`
	PrescriptionID string     `json:"prescription_id"`
	PatientID      int64      `json:"patient_id"`
	PharmacistID   *int64     `json:"pharmacist_id,omitempty"`
	Status         string     `json:"status"`
	OTPCode        string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Order statuses.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusPickedUp  = "picked_up"
)

// OrderExpiry is how long an order may sit unpicked before it counts as stale.
const OrderExpiry = 48 * time.Hour

// Stale reports whether the order has been waiting longer than OrderExpiry
// without being picked up. This is a derived reporting fact, not a transition.
func (o *Order) Stale(now time.Time) bool {
	return o.Status != StatusPickedUp && now.Sub(o.CreatedAt) > OrderExpiry
}
