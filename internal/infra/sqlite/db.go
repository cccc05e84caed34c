// Package sqlite persists lottery state: tickets, balances, payout history
// and the open round snapshot. The in-memory controller and ledger stay
// authoritative; this store exists for auditing and crash recovery.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite connection.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Serialized writes keep ledger updates atomic.
	conn.SetMaxOpenConns(1)

	db := &DB{db: conn}
	for _, stmt := range Migrations() {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.db.Close() }

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
// Wei amounts are stored as decimal TEXT so no value is ever truncated.
func Migrations() []string {
	return []string{
		// One ticket per commitment, scoped to its round
		`CREATE TABLE IF NOT EXISTS tickets (
			commitment  TEXT PRIMARY KEY,
			round_idx   INTEGER NOT NULL,
			id          TEXT NOT NULL,
			owner       TEXT NOT NULL,
			tier        TEXT NOT NULL,
			number      INTEGER NOT NULL DEFAULT 0,
			revealed    INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_round ON tickets(round_idx)`,

		// Pull-payment balances
		`CREATE TABLE IF NOT EXISTS balances (
			account  TEXT PRIMARY KEY,
			pending  TEXT NOT NULL DEFAULT '0',
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Settled round audit trail
		`CREATE TABLE IF NOT EXISTS payouts (
			round_idx    INTEGER PRIMARY KEY,
			payout_tick  INTEGER NOT NULL,
			total        TEXT NOT NULL,
			allocated    TEXT NOT NULL,
			leftover     TEXT NOT NULL,
			winners_json TEXT NOT NULL DEFAULT '[]',
			created_at   TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Round snapshot (single row per round index). The settled state is
		// part of the snapshot: a paid-out round must restore as paid out.
		`CREATE TABLE IF NOT EXISTS rounds (
			round_idx   INTEGER PRIMARY KEY,
			start_tick  INTEGER NOT NULL,
			carried     TEXT NOT NULL,
			total       TEXT NOT NULL,
			paid_out    INTEGER NOT NULL DEFAULT 0,
			payout_tick INTEGER NOT NULL DEFAULT 0,
			leftover    TEXT NOT NULL DEFAULT '0',
			updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Daemon metadata (genesis time for the tick clock)
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
}

// ─── Meta Operations ────────────────────────────────────────────────────────

// SetMeta stores a metadata key, overwriting any prior value.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMeta retrieves a metadata key. A missing key returns "" with no error.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
