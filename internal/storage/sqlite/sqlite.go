// Package sqlite implements the storage interfaces on a local SQLite file,
// for running the engine next to a trading bot that keeps its trades in SQLite.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"trading-analytics/internal/storage"
)

// DB wraps sqlx.DB for dependency injection.
type DB struct {
	*sqlx.DB
}

// Open opens (creating if needed) the SQLite database at path.
// The pool is limited to one connection: SQLite has a single writer and the
// engine is the only one.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)" +
		"&_time_format=sqlite"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &DB{DB: db}, nil
}

// Stores returns the three stores backed by db.
func (db *DB) Stores() storage.Stores {
	return storage.Stores{
		Trades:    NewTradeStore(db),
		Snapshots: NewSnapshotStore(db),
		Analytics: NewAnalyticsStore(db),
	}
}

// isDuplicateKeyError checks if error is a primary key or unique violation.
func isDuplicateKeyError(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// collect scans every row through the table's field list. An empty result is nil.
func collect[T any](rows *sqlx.Rows, t storage.Table[T]) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		var v T
		if err := rows.Scan(t.Fields(&v)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.Name, err)
	}
	return out, nil
}
