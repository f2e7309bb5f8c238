package store

import (
	"errors"
	"fmt"

	"github.com/erazemk/lekarna/internal/model"
)

// Business outcomes reported by the order state machine. These are expected
// caller-facing results, not internal failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InsufficientStockError reports a reservation that could not be fully
// covered. No quantities were changed; the shortage list tells the caller
// exactly which medicines were short and by how much.
type InsufficientStockError struct {
	Shortages []model.Shortage
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d medicine(s)", len(e.Shortages))
}
