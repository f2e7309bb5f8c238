package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'patient' CHECK (role IN ('patient', 'doctor', 'pharmacist', 'admin')),
    hospital_name TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS inventory (
    id                  INTEGER PRIMARY KEY,
    name                TEXT NOT NULL,
    quantity            INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    unit                TEXT NOT NULL DEFAULT 'units',
    low_stock_threshold INTEGER NOT NULL DEFAULT 0 CHECK (low_stock_threshold >= 0),
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_name
    ON inventory(name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS prescriptions (
    id         TEXT PRIMARY KEY,
    doctor_id  INTEGER NOT NULL REFERENCES users(id),
    patient_id INTEGER NOT NULL REFERENCES users(id),
    raw_text   TEXT NOT NULL DEFAULT '',
    scan       BLOB,
    scan_mime  TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    prescription_id TEXT NOT NULL REFERENCES prescriptions(id) ON DELETE CASCADE,
    patient_id      INTEGER NOT NULL REFERENCES users(id),
    pharmacist_id   INTEGER REFERENCES users(id),
    status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'preparing', 'picked_up')),
    otp_code        TEXT NOT NULL CHECK (length(otp_code) = 6),
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Queue order is rowid order: entries are append-only at the tail.
CREATE TABLE IF NOT EXISTS queue_entries (
    id                INTEGER PRIMARY KEY,
    queue_id          TEXT NOT NULL UNIQUE,
    order_id          TEXT NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
    items             TEXT NOT NULL DEFAULT '[]',
    enqueued_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    estimated_seconds REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_events (
    id              INTEGER PRIMARY KEY,
    medicine_name   TEXT NOT NULL,
    prescription_id TEXT NOT NULL,
    required        INTEGER NOT NULL,
    available       INTEGER NOT NULL,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
