package model

import "time"

// Prescription is a scanned prescription document uploaded by a doctor.
// The scan bytes are stored alongside but only loaded on download.
type Prescription struct {
	ID         string    `json:"id"`
	DoctorID   int64     `json:"doctor_id"`
	DoctorName string    `json:"doctor_name,omitempty"`
	PatientID  int64     `json:"patient_id"`
	RawText    string    `json:"-"`
	ScanMime   string    `json:"scan_mime,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LineItem is one medicine extracted from prescription text.
type LineItem struct {
	Name     string `json:"name"`
	Dose     string `json:"dose"`
	Quantity int    `json:"quantity"`
}
