package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trading-analytics/internal/engine"
	"trading-analytics/internal/observability"
	"trading-analytics/internal/scheduler"
)

func runCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run analytics cycles on a schedule until interrupted",
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

			srv := &http.Server{
				Addr:              a.cfg.Metrics.Addr,
				Handler:           newMux(eng),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			sched := scheduler.New(gctx, scheduler.Options{
				Cycler:         eng,
				Health:         eng,
				Interval:       a.cfg.Scheduler.Interval,
				HealthInterval: a.cfg.Scheduler.HealthInterval,
				RunOnStart:     a.cfg.Scheduler.RunOnStart,
				Logger:         a.log,
			})

			g.Go(func() error {
				return sched.Run(gctx)
			})
			g.Go(func() error {
				a.log.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return a.fail(err, "service stopped")
			}
			a.log.Info().Int64("checkpoint", eng.LastTradeID()).Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the embedded schema before starting")
	cmd.Flags().Duration("interval", 0, "Cycle interval (default from config)")
	cmd.Flags().String("metrics-addr", "", "Prometheus metrics HTTP address")
	return cmd
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string          `json:"status"`
	Checkpoint   int64           `json:"checkpoint"`
	Overall      string          `json:"overall_health,omitempty"`
	LastSnapshot *SnapshotStatus `json:"last_snapshot,omitempty"`
}

// SnapshotStatus summarizes the newest snapshot.
type SnapshotStatus struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func newMux(eng *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		report, err := eng.CheckHealth(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		resp := StatusResponse{Status: "running", Checkpoint: report.Checkpoint, Overall: string(report.Overall())}
		if report.LastSnapshot != nil {
			resp.LastSnapshot = &SnapshotStatus{ID: report.LastSnapshot.ID, Status: string(report.LastSnapshot.Status)}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}
