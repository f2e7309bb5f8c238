package model

import "time"

// Medicine represents one catalog entry. Names are unique case-insensitively;
// quantity is mutated only by the reservation ledger and stock admin endpoints.
type Medicine struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Quantity          int       `json:"quantity"`
	Unit              string    `json:"unit"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Shortage describes one medicine a reservation could not cover.
type Shortage struct {
	Name      string `json:"name"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

// StockEvent records a failed reservation attempt for one medicine.
type StockEvent struct {
	ID             int64     `json:"id"`
	MedicineName   string    `json:"medicine_name"`
	PrescriptionID string    `json:"prescription_id"`
	Required       int       `json:"required"`
	Available      int       `json:"available"`
	CreatedAt      time.Time `json:"created_at"`
}
