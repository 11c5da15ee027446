// Package journal keeps an append-only audit trail of lifecycle
// operations in a local SQLite database beside the config file. Service
// installs and identity changes on plant machines tend to be disputed
// weeks later; the journal answers who did what, when, and how it went.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339

// Entry is one recorded lifecycle operation.
type Entry struct {
	ID        int64
	At        time.Time
	Operation string
	Service   string
	Outcome   string
	Detail    string
	Duration  time.Duration
	Operator  string
}

// Journal is a SQLite-backed operation log. Safe for use from a single
// process; scadactl invocations are operator-serialized.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the journal database.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			operation TEXT NOT NULL,
			service TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			operator TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create operations table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_operations_at ON operations(at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends one entry. A zero At means now.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	at := e.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := j.db.Exec(
		`INSERT INTO operations (at, operation, service, outcome, detail, duration_ms, operator)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(timeLayout), e.Operation, e.Service, e.Outcome, e.Detail,
		e.Duration.Milliseconds(), e.Operator,
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, at, operation, service, outcome, detail, duration_ms, operator
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		var durationMS int64
		if err := rows.Scan(&e.ID, &at, &e.Operation, &e.Service, &e.Outcome, &e.Detail, &durationMS, &e.Operator); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		if ts, err := time.Parse(timeLayout, at); err == nil {
			e.At = ts
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded operations.
func (j *Journal) Count() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var count int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM operations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count operations: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// CurrentOperator names the invoking user for audit rows.
func CurrentOperator() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "unknown"
}
