// Package sqlite provides a SQLite-backed implementation of the
// storage.Journal interface using Go's standard database/sql package.
//
// The journal is a single file next to the wallet that made the
// attempts, so there is no server to run. The blank import below
// registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/blockfest-backend/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// ErrAttemptNotFound is returned when no attempt has the requested id.
var ErrAttemptNotFound = errors.New("attempt not found")

// timeLayout has a fixed-width fraction so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is the concrete implementation of storage.Journal.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database at path and creates the
// purchase_attempts table if it does not already exist.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// ids are uuids; timestamps are fixed-width UTC strings so rows sort
	// lexically by time. value is the ether amount as a decimal string.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS purchase_attempts (
			id         TEXT    PRIMARY KEY,
			kind       TEXT    NOT NULL,
			ticket_id  INTEGER NOT NULL DEFAULT 0,
			wallet     TEXT    NOT NULL,
			token_uri  TEXT    NOT NULL DEFAULT '',
			qr_token   TEXT    NOT NULL DEFAULT '',
			is_vip     INTEGER NOT NULL DEFAULT 0,
			value      TEXT    NOT NULL DEFAULT '0',
			tx_hash    TEXT    NOT NULL DEFAULT '',
			status     TEXT    NOT NULL,
			reason     TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL,
			updated_at TEXT    NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_purchase_attempts_status ON purchase_attempts (status)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create index: %w", err)
	}

	return &SQLite{Db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// RecordAttempt inserts attempt with a fresh id in StatusPending, whatever
// status the caller set.
func (s *SQLite) RecordAttempt(attempt types.Attempt) (string, error) {
	stmt, err := s.Db.Prepare(`
		INSERT INTO purchase_attempts
			(id, kind, ticket_id, wallet, token_uri, qr_token, is_vip, value, tx_hash, status, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?, '', ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("RecordAttempt: prepare: %w", err)
	}
	defer stmt.Close()

	id := uuid.NewString()
	now := s.timestamp()
	value := attempt.Value
	if value == "" {
		value = "0"
	}

	_, err = stmt.Exec(
		id,
		string(attempt.Kind),
		attempt.TicketID,
		attempt.Wallet,
		attempt.TokenURI,
		attempt.QRToken,
		attempt.IsVIP,
		value,
		string(types.StatusPending),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("RecordAttempt: exec: %w", err)
	}

	return id, nil
}

// SettleAttempt updates status, tx hash and reason of one attempt. An
// empty txHash keeps the hash already stored.
func (s *SQLite) SettleAttempt(id string, status types.AttemptStatus, txHash, reason string) error {
	stmt, err := s.Db.Prepare(`
		UPDATE purchase_attempts
		SET status = ?,
		    tx_hash = CASE WHEN ? = '' THEN tx_hash ELSE ? END,
		    reason = ?,
		    updated_at = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("SettleAttempt: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(string(status), txHash, txHash, reason, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("SettleAttempt: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SettleAttempt: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("SettleAttempt: %w: %s", ErrAttemptNotFound, id)
	}

	return nil
}

const selectColumns = `
	SELECT id, kind, ticket_id, wallet, token_uri, qr_token, is_vip, value, tx_hash, status, reason, created_at, updated_at
	FROM purchase_attempts`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (types.Attempt, error) {
	var (
		a                    types.Attempt
		kind, status         string
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&a.ID,
		&kind,
		&a.TicketID,
		&a.Wallet,
		&a.TokenURI,
		&a.QRToken,
		&a.IsVIP,
		&a.Value,
		&a.TxHash,
		&status,
		&a.Reason,
		&createdAt,
		&updatedAt,
	); err != nil {
		return types.Attempt{}, err
	}

	a.Kind = types.AttemptKind(kind)
	a.Status = types.AttemptStatus(status)

	var err error
	if a.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return types.Attempt{}, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return types.Attempt{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return a, nil
}

// GetAttempt fetches exactly one attempt by id.
func (s *SQLite) GetAttempt(id string) (types.Attempt, error) {
	stmt, err := s.Db.Prepare(selectColumns + " WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Attempt{}, fmt.Errorf("GetAttempt: prepare: %w", err)
	}
	defer stmt.Close()

	attempt, err := scanAttempt(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attempt{}, fmt.Errorf("GetAttempt: %w: %s", ErrAttemptNotFound, id)
		}
		return types.Attempt{}, fmt.Errorf("GetAttempt: scan: %w", err)
	}

	return attempt, nil
}

// GetAttempts returns every attempt, newest first.
func (s *SQLite) GetAttempts() ([]types.Attempt, error) {
	return s.query("GetAttempts", selectColumns+" ORDER BY created_at DESC, id")
}

// GetAttemptsByStatus returns the attempts in status, oldest first.
func (s *SQLite) GetAttemptsByStatus(status types.AttemptStatus) ([]types.Attempt, error) {
	return s.query("GetAttemptsByStatus", selectColumns+" WHERE status = ? ORDER BY created_at ASC, id", string(status))
}

func (s *SQLite) query(op, query string, args ...any) ([]types.Attempt, error) {
	stmt, err := s.Db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	// Non-nil so an empty journal encodes as [] rather than null.
	attempts := make([]types.Attempt, 0)

	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}

	return attempts, nil
}
