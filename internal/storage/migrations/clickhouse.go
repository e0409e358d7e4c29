package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chstore "trading-analytics/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the export database named in dsn, applies
// the embedded ClickHouse files and returns a connection to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	opts, err := chstore.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	database := opts.Auth.Database
	if database == "" {
		return nil, errors.New("clickhouse dsn names no database")
	}

	if err := createDatabase(ctx, dsn, database); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := applyClickhouse(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func createDatabase(ctx context.Context, dsn, database string) error {
	server, err := chstore.NewConn(ctx, dsn, chstore.WithDatabase(""))
	if err != nil {
		return err
	}
	defer server.Close()

	ddl := "CREATE DATABASE IF NOT EXISTS `" + strings.ReplaceAll(database, "`", "``") + "`"
	if err := server.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create database %s: %w", database, err)
	}
	return nil
}

// applyClickhouse runs statements one by one; the native protocol rejects multi-statement Exec.
func applyClickhouse(ctx context.Context, conn *chstore.Conn) error {
	files, err := readMigrations(ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}
	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			return fmt.Errorf("parse migration %s: %w", m.name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return nil
}

// splitStatements cuts a migration file at top-level semicolons. It drops
// "--" comments and keeps single-quoted literals intact, doubled quotes and
// semicolons inside them included.
func splitStatements(src string) ([]string, error) {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case c == '\'':
			end := literalEnd(src, i)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal at offset %d", i)
			}
			cur.WriteString(src[i : end+1])
			i = end
		case c == '-' && strings.HasPrefix(src[i:], "--"):
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				i = len(src)
				continue
			}
			i += nl
			cur.WriteByte('\n')
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts, nil
}

// literalEnd returns the index of the quote closing the literal opened at
// start, or -1 if the literal never closes.
func literalEnd(src string, start int) int {
	for i := start + 1; i < len(src); i++ {
		if src[i] != '\'' {
			continue
		}
		if i+1 < len(src) && src[i+1] == '\'' {
			i++
			continue
		}
		return i
	}
	return -1
}
