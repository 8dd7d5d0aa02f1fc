// Package ledger records completed tool runs in a local SQLite database.
// Its primary duty is request deduplication: a request_id that already
// appears in the ledger must not execute again.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	request_id TEXT PRIMARY KEY,
	tool       TEXT NOT NULL,
	mode       TEXT NOT NULL,
	ok         INTEGER NOT NULL,
	summary    TEXT NOT NULL,
	ts         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_ts ON runs (ts DESC);
`

// Run is one recorded tool execution.
type Run struct {
	RequestID string    `json:"request_id"`
	Tool      string    `json:"tool"`
	Mode      string    `json:"mode"`
	OK        bool      `json:"ok"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"ts"`
}

// Ledger is a handle to the runs database. Safe for concurrent use; the
// underlying *sql.DB serializes access.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent dispatch.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: init schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// ErrDuplicateRequest is returned by Reserve when the request id has
// already been claimed.
var ErrDuplicateRequest = errors.New("duplicate request_id")

// Reserve claims a request id before execution starts. The insert is
// the dedupe point: of any number of concurrent reservations for the
// same id, exactly one succeeds and the rest get ErrDuplicateRequest.
func (l *Ledger) Reserve(r Run) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	res, err := l.db.Exec(
		`INSERT INTO runs (request_id, tool, mode, ok, summary, ts) VALUES (?, ?, ?, 0, '', ?)
		 ON CONFLICT(request_id) DO NOTHING`,
		r.RequestID, r.Tool, r.Mode, r.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ledger: reserve %s: %w", r.RequestID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: reserve %s: %w", r.RequestID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, r.RequestID)
	}
	return nil
}

// Complete finalizes a reserved run with its outcome. Completing an id
// that was never reserved is a no-op.
func (l *Ledger) Complete(r Run) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	_, err := l.db.Exec(
		`UPDATE runs SET ok = ?, summary = ?, ts = ? WHERE request_id = ?`,
		boolInt(r.OK), r.Summary, r.Timestamp.UTC().Format(time.RFC3339Nano), r.RequestID,
	)
	if err != nil {
		return fmt.Errorf("ledger: complete %s: %w", r.RequestID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(
		`SELECT request_id, tool, mode, ok, summary, ts FROM runs ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ok int
		var ts string
		if err := rows.Scan(&r.RequestID, &r.Tool, &r.Mode, &ok, &r.Summary, &ts); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		r.OK = ok != 0
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
