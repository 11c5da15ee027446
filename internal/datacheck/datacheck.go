// Package datacheck answers "is the collector actually collecting":
// it compares the newest TC2 workbook on the plant share against the
// latest check_datetime the worker has written to the target MSSQL
// table. Read-only; it never mutates service or database state.
package datacheck

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/maerty1/scada/internal/config"
)

// dateColumn is the timestamp column the worker stamps on every row.
const dateColumn = "check_datetime"

// Result is one freshness snapshot.
type Result struct {
	WorkbookPath string    // newest TC2 workbook, empty when none found
	WorkbookTime time.Time // its modification time
	MaxCheckTime time.Time // newest row in the target table, zero when empty
	RowCount     int64
}

// Lag returns how far the database trails the share. Zero or negative
// means the table is at least as fresh as the newest workbook.
func (r Result) Lag() time.Duration {
	if r.WorkbookPath == "" || r.MaxCheckTime.IsZero() {
		return 0
	}
	return r.WorkbookTime.Sub(r.MaxCheckTime)
}

// DSN builds a go-mssqldb connection string for the collector's target
// database. Encryption is disabled because plant-floor SQL Servers run
// without certificates.
func DSN(db config.DatabaseConfig) string {
	return fmt.Sprintf("server=%s;database=%s;user id=%s;password=%s;encrypt=disable",
		db.Server, db.Database, db.Username, db.Password)
}

// Open connects to the target database.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", cfg.Server, cfg.Database, err)
	}
	return db, nil
}

// Check probes both sides. A missing workbook is reported in the result,
// not as an error; the share being empty is a finding, not a failure.
func Check(ctx context.Context, db *sql.DB, table, filesDir string) (Result, error) {
	var res Result

	path, mod, err := NewestWorkbook(filesDir)
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", filesDir, err)
	}
	res.WorkbookPath = path
	res.WorkbookTime = mod

	if !validTable(table) {
		return res, fmt.Errorf("invalid target table %q", table)
	}

	var maxTime sql.NullTime
	query := fmt.Sprintf("SELECT MAX(%s), COUNT(*) FROM %s", dateColumn, table)
	if err := db.QueryRowContext(ctx, query).Scan(&maxTime, &res.RowCount); err != nil {
		return res, fmt.Errorf("query %s: %w", table, err)
	}
	if maxTime.Valid {
		res.MaxCheckTime = maxTime.Time
	}
	return res, nil
}

// NewestWorkbook returns the most recently modified TC2 workbook in dir.
// Empty path means no workbook was found.
func NewestWorkbook(dir string) (string, time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, err
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !isWorkbook(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = e.Name()
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", time.Time{}, nil
	}
	return filepath.Join(dir, newest), newestMod, nil
}

// isWorkbook matches the export naming scheme, e.g. 2025-12-23_TC-2.xlsx.
// Excel lock files (~$...) are skipped.
func isWorkbook(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "tc-2.xlsx") && !strings.HasPrefix(name, "~$")
}

// validTable accepts schema-qualified identifiers only; the table name
// comes from local config but still ends up inside a query string.
func validTable(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '[' || r == ']':
		default:
			return false
		}
	}
	return true
}
