package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erazemk/lekarna/internal/match"
	"github.com/erazemk/lekarna/internal/model"
)

// ListInventory returns the full catalog ordered by insertion (id), so
// matching over a snapshot is reproducible.
func ListInventory(ctx context.Context, db *sql.DB) ([]model.Medicine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, quantity, unit, low_stock_threshold, updated_at
		 FROM inventory ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	return scanMedicines(rows)
}

// GetMedicine returns a catalog entry by ID.
func GetMedicine(ctx context.Context, db *sql.DB, id int64) (*model.Medicine, error) {
	m := &model.Medicine{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, quantity, unit, low_stock_threshold, updated_at
		 FROM inventory WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Quantity, &m.Unit, &m.LowStockThreshold, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting medicine: %w", err)
	}
	return m, nil
}

// CreateMedicine adds a new catalog entry.
func CreateMedicine(ctx context.Context, db *sql.DB, name string, quantity int, unit string, lowStockThreshold int) (*model.Medicine, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}
	if unit == "" {
		unit = "units"
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO inventory (name, quantity, unit, low_stock_threshold) VALUES (?, ?, ?, ?)`,
		name, quantity, unit, lowStockThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("creating medicine: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting medicine id: %w", err)
	}

	return GetMedicine(ctx, db, id)
}

// UpdateMedicineQuantity sets an absolute quantity (admin correction).
func UpdateMedicineQuantity(ctx context.Context, db *sql.DB, id int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE inventory SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return fmt.Errorf("updating medicine quantity: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMedicine removes a catalog entry.
func DeleteMedicine(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting medicine: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLowStock returns medicines at or below their low-stock threshold.
func ListLowStock(ctx context.Context, db *sql.DB) ([]model.Medicine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, quantity, unit, low_stock_threshold, updated_at
		 FROM inventory WHERE quantity <= low_stock_threshold ORDER BY quantity`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low stock: %w", err)
	}
	defer rows.Close()

	return scanMedicines(rows)
}

// ImportCSV bulk-loads catalog rows from name,quantity,unit[,low_stock_threshold]
// records. Existing medicines (matched case-insensitively) get the quantity
// added; unknown ones are created. Returns the number of rows processed.
func ImportCSV(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading csv header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, ok := col["name"]
	if !ok {
		if nameIdx, ok = col["medicine_name"]; !ok {
			return 0, fmt.Errorf("csv is missing a name column")
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	field := func(record []string, key string) string {
		i, ok := col[key]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	processed := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv record: %w", err)
		}

		name := strings.TrimSpace(record[nameIdx])
		if name == "" {
			continue
		}

		quantity, _ := strconv.Atoi(field(record, "quantity"))
		if quantity < 0 {
			continue
		}
		unit := field(record, "unit")
		if unit == "" {
			unit = "units"
		}
		threshold, _ := strconv.Atoi(field(record, "low_stock_threshold"))

		_, err = tx.ExecContext(ctx,
			`INSERT INTO inventory (name, quantity, unit, low_stock_threshold) VALUES (?, ?, ?, ?)
			 ON CONFLICT (name COLLATE NOCASE) DO UPDATE SET
			     quantity = quantity + excluded.quantity,
			     updated_at = CURRENT_TIMESTAMP`,
			name, quantity, unit, threshold,
		)
		if err != nil {
			return 0, fmt.Errorf("importing %q: %w", name, err)
		}
		processed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return processed, nil
}

// Reservation is one medicine requirement for a submission. MedicineID is
// zero when the catalog matcher found nothing for the extracted name.
type Reservation struct {
	RawName    string
	MedicineID int64
	Required   int
}

// Reserve validates and applies stock decrements for one submission as a
// single all-or-nothing transaction. If any medicine is unmatched or short,
// nothing is decremented: the shortages are logged as stock events and an
// InsufficientStockError carrying the full list is returned. On success the
// reserved medicines are returned with their packing kinds, for the queue.
func Reserve(ctx context.Context, db *sql.DB, prescriptionID string, items []Reservation) ([]model.QueueItem, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var shortages []model.Shortage
	var reserved []model.QueueItem

	// Requirements are aggregated per medicine so two line items matched to
	// the same catalog entry can't each pass validation against the same stock.
	needed := map[int64]int{}

	for _, item := range items {
		if item.MedicineID == 0 {
			shortages = append(shortages, model.Shortage{
				Name:      item.RawName,
				Available: 0,
				Required:  item.Required,
			})
			continue
		}

		var name string
		var available int
		err := tx.QueryRowContext(ctx,
			`SELECT name, quantity FROM inventory WHERE id = ?`, item.MedicineID,
		).Scan(&name, &available)
		if err == sql.ErrNoRows {
			// Matched against a snapshot, deleted since.
			shortages = append(shortages, model.Shortage{
				Name:      item.RawName,
				Available: 0,
				Required:  item.Required,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checking stock for %q: %w", item.RawName, err)
		}

		needed[item.MedicineID] += item.Required
		if available < needed[item.MedicineID] {
			shortages = append(shortages, model.Shortage{
				Name:      name,
				Available: available,
				Required:  needed[item.MedicineID],
			})
			continue
		}

		reserved = append(reserved, model.QueueItem{Name: name, Kind: match.Kind(name)})
	}

	if len(shortages) > 0 {
		// Log the shortage events but leave every quantity untouched.
		for _, s := range shortages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO stock_events (medicine_name, prescription_id, required, available)
				 VALUES (?, ?, ?, ?)`,
				s.Name, prescriptionID, s.Required, s.Available,
			); err != nil {
				return nil, fmt.Errorf("recording stock event: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing stock events: %w", err)
		}
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	for medicineID, required := range needed {
		result, err := tx.ExecContext(ctx,
			`UPDATE inventory SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND quantity >= ?`,
			required, medicineID, required,
		)
		if err != nil {
			return nil, fmt.Errorf("reserving medicine %d: %w", medicineID, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("reserving medicine %d: stock changed concurrently", medicineID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}
	return reserved, nil
}

// ListStockEvents returns the most recent failed-reservation events.
func ListStockEvents(ctx context.Context, db *sql.DB, limit int) ([]model.StockEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, medicine_name, prescription_id, required, available, created_at
		 FROM stock_events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stock events: %w", err)
	}
	defer rows.Close()

	var events []model.StockEvent
	for rows.Next() {
		var e model.StockEvent
		if err := rows.Scan(&e.ID, &e.MedicineName, &e.PrescriptionID, &e.Required, &e.Available, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning stock event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanMedicines(rows *sql.Rows) ([]model.Medicine, error) {
	var meds []model.Medicine
	for rows.Next() {
		var m model.Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Quantity, &m.Unit, &m.LowStockThreshold, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning medicine: %w", err)
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}
