package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"trading-analytics/internal/reporting"
)

func reportCmd(a *app) *cobra.Command {
	var (
		output    string
		csvPath   string
		snapshots int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the current analytics and snapshot history as Markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := openBackend(ctx, a.cfg, a.log, false)
			if err != nil {
				return a.fail(err, "open storage")
			}
			defer b.Close()

			report, err := reporting.NewGenerator(b.stores.Analytics, b.stores.Snapshots).
				WithSnapshotLimit(snapshots).
				Generate(ctx)
			if err != nil {
				return a.fail(err, "generate report")
			}

			md := reporting.RenderMarkdown(report)
			if output == "" || output == "-" {
				fmt.Fprint(cmd.OutOrStdout(), md)
			} else if err := writeFile(output, md); err != nil {
				return a.fail(err, "write report")
			}

			if csvPath != "" {
				out, err := reporting.RenderCSV(report)
				if err != nil {
					return a.fail(err, "render csv")
				}
				if err := writeFile(csvPath, out); err != nil {
					return a.fail(err, "write csv")
				}
			}

			a.log.Info().Str("output", output).Str("csv", csvPath).Msg("report generated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Markdown output file (stdout when empty)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write pair analytics as CSV to this file")
	cmd.Flags().IntVar(&snapshots, "snapshots", reporting.DefaultSnapshotLimit, "Number of recent snapshots to list (0 for all)")
	return cmd
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
