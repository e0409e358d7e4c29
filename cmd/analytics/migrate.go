package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the configured database and ClickHouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := openBackend(ctx, a.cfg, a.log, true)
			if err != nil {
				return a.fail(err, "migrate storage")
			}
			defer b.Close()

			if err := b.openExporter(ctx, a.cfg, a.log, true); err != nil {
				return a.fail(err, "migrate clickhouse")
			}

			a.log.Info().Msg("migrations applied")
			return nil
		},
	}
}
