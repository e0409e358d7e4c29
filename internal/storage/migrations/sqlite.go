package migrations

import (
	"context"
	"fmt"

	"trading-analytics/internal/storage/sqlite"
)

// RunSQLiteMigrations applies all embedded SQLite files in lexical order,
// one statement at a time. Migrations are expected to be idempotent.
func RunSQLiteMigrations(ctx context.Context, db *sqlite.DB) error {
	files, err := readMigrations(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			return fmt.Errorf("parse migration %s: %w", m.name, err)
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return nil
}
