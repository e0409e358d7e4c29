package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trading-analytics/internal/config"
	"trading-analytics/internal/logging"
)

// app carries what every subcommand needs after the root pre-run.
type app struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "analytics",
		Short:         "Incremental trading analytics for a trading bot's closed trades",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to YAML config file")
	flags.String("driver", "", "Database driver: postgres, sqlite or memory")
	flags.String("dsn", "", "PostgreSQL connection string")
	flags.String("db-path", "", "SQLite database file")
	flags.String("detect-mode", "", "Change detection: count or fetch")
	flags.String("log-level", "", "Log level")
	flags.String("log-format", "", "Log format: json or console")
	flags.String("clickhouse", "", "ClickHouse DSN for the analytics export")

	root.AddCommand(runCmd(a), onceCmd(a), reportCmd(a), migrateCmd(a))
	return root
}

// fail logs err and returns it so cobra exits non-zero.
func (a *app) fail(err error, msg string) error {
	a.log.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
