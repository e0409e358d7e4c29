package main

import (
	"github.com/spf13/cobra"

	"trading-analytics/internal/scheduler"
)

func onceCmd(a *app) *cobra.Command {
	var (
		migrate bool
		health  bool
	)

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single analytics cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := openBackend(ctx, a.cfg, a.log, migrate)
			if err != nil {
				return a.fail(err, "open storage")
			}
			defer b.Close()
			if err := b.openExporter(ctx, a.cfg, a.log, migrate); err != nil {
				return a.fail(err, "open export")
			}

			eng, err := newEngine(a.cfg, b, a.log)
			if err != nil {
				return a.fail(err, "create engine")
			}

			// The engine logs the cycle outcome itself.
			if _, err := eng.RunCycle(ctx); err != nil {
				return err
			}

			if health {
				report, err := eng.CheckHealth(ctx)
				if err != nil {
					return a.fail(err, "health check")
				}
				scheduler.LogHealth(a.log, report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the embedded schema before the cycle")
	cmd.Flags().BoolVar(&health, "health", false, "Log the bot health gauges after the cycle")
	return cmd
}
