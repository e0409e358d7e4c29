package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"trading-analytics/internal/config"
	"trading-analytics/internal/engine"
	"trading-analytics/internal/storage"
	chstore "trading-analytics/internal/storage/clickhouse"
	"trading-analytics/internal/storage/memory"
	"trading-analytics/internal/storage/migrations"
	pgstore "trading-analytics/internal/storage/postgres"
	"trading-analytics/internal/storage/sqlite"
)

// backend is an opened database plus the optional ClickHouse exporter.
type backend struct {
	stores   storage.Stores
	exporter engine.Exporter
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects to the configured database. With migrate set, the embedded
// schema is applied first.
func openBackend(ctx context.Context, cfg config.Config, log zerolog.Logger, migrate bool) (*backend, error) {
	b := &backend{}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage, analytics are lost on exit")
		b.stores = memory.NewStores()

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				b.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		b.stores = pool.Stores()

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Database.Path, err)
		}
		b.closers = append(b.closers, func() { db.Close() })
		if migrate {
			if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
				b.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		b.stores = db.Stores()

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	log.Info().Str("driver", cfg.Database.Driver).Bool("migrated", migrate).Msg("storage ready")
	return b, nil
}

// openExporter connects the ClickHouse exporter when a DSN is configured.
func (b *backend) openExporter(ctx context.Context, cfg config.Config, log zerolog.Logger, migrate bool) error {
	if cfg.ClickHouse.DSN == "" {
		return nil
	}

	var (
		conn *chstore.Conn
		err  error
	)
	if migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	} else {
		conn, err = chstore.NewConn(ctx, cfg.ClickHouse.DSN)
	}
	if err != nil {
		return fmt.Errorf("connect to clickhouse: %w", err)
	}

	b.closers = append(b.closers, func() { conn.Close() })
	b.exporter = chstore.NewExporter(conn)
	log.Info().Str("database", conn.Database()).Msg("clickhouse export enabled")
	return nil
}

func newEngine(cfg config.Config, b *backend, log zerolog.Logger) (*engine.Engine, error) {
	mode, err := engine.ParseDetectMode(cfg.Detector.Mode)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Options{
		Trades:     b.stores.Trades,
		Snapshots:  b.stores.Snapshots,
		Analytics:  b.stores.Analytics,
		DetectMode: mode,
		Exporter:   b.exporter,
		Logger:     log,
	}), nil
}
