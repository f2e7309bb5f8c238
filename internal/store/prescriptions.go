package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/lekarna/internal/model"
)

// CreatePrescription stores a prescription record with the raw text the
// extraction service produced for its scan.
func CreatePrescription(ctx context.Context, db *sql.DB, doctorID, patientID int64, rawText string) (*model.Prescription, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO prescriptions (id, doctor_id, patient_id, raw_text) VALUES (?, ?, ?, ?)`,
		id, doctorID, patientID, rawText,
	)
	if err != nil {
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	return GetPrescription(ctx, db, id)
}

// GetPrescription returns a prescription by ID, without the scan bytes.
func GetPrescription(ctx context.Context, db *sql.DB, id string) (*model.Prescription, error) {
	p := &model.Prescription{}
	var scanMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT p.id, p.doctor_id, p.patient_id, p.raw_text, p.scan_mime, p.created_at, u.name
		 FROM prescriptions p
		 JOIN users u ON u.id = p.doctor_id
		 WHERE p.id = ?`, id,
	).Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.RawText, &scanMime, &p.CreatedAt, &p.DoctorName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting prescription: %w", err)
	}
	p.ScanMime = scanMime.String
	return p, nil
}

// ListPrescriptionsForPatient returns a patient's prescriptions, newest first.
func ListPrescriptionsForPatient(ctx context.Context, db *sql.DB, patientID int64) ([]model.Prescription, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.doctor_id, p.patient_id, p.raw_text, p.scan_mime, p.created_at, u.name
		 FROM prescriptions p
		 JOIN users u ON u.id = p.doctor_id
		 WHERE p.patient_id = ? ORDER BY p.created_at DESC`, patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing prescriptions: %w", err)
	}
	defer rows.Close()

	var prescriptions []model.Prescription
	for rows.Next() {
		var p model.Prescription
		var scanMime sql.NullString
		if err := rows.Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.RawText, &scanMime, &p.CreatedAt, &p.DoctorName); err != nil {
			return nil, fmt.Errorf("scanning prescription: %w", err)
		}
		p.ScanMime = scanMime.String
		prescriptions = append(prescriptions, p)
	}
	return prescriptions, rows.Err()
}

// GetPrescriptionText returns just the raw text of a prescription.
func GetPrescriptionText(ctx context.Context, db *sql.DB, id string) (string, error) {
	var text string
	err := db.QueryRowContext(ctx,
		`SELECT raw_text FROM prescriptions WHERE id = ?`, id,
	).Scan(&text)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting prescription text: %w", err)
	}
	return text, nil
}

// SetPrescriptionScan attaches processed scan image data to a prescription.
func SetPrescriptionScan(ctx context.Context, db *sql.DB, id string, data []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE prescriptions SET scan = ?, scan_mime = ? WHERE id = ?`,
		data, mime, id,
	)
	if err != nil {
		return fmt.Errorf("storing prescription scan: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPrescriptionScan returns the stored scan bytes and MIME type.
func GetPrescriptionScan(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT scan, scan_mime FROM prescriptions WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting prescription scan: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrNotFound
	}
	return data, mime.String, nil
}
