// Package scheduler runs analytics cycles and health checks on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"trading-analytics/internal/engine"
	"trading-analytics/internal/logging"
)

// Cycler runs one analytics cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (*engine.CycleResult, error)
}

// HealthChecker produces a read-only health report.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*engine.HealthReport, error)
}

// Options configures the scheduler.
type Options struct {
	Cycler         Cycler
	Health         HealthChecker // optional
	Interval       time.Duration
	HealthInterval time.Duration // 0 disables the health job
	RunOnStart     bool
	Logger         zerolog.Logger
}

// Scheduler triggers cycles every Interval. A tick that fires while the previous
// cycle is still running is skipped.
type Scheduler struct {
	opts Options
	log  zerolog.Logger
	cron *cron.Cron
	wg   sync.WaitGroup

	cycleJob  cron.Job
	healthJob cron.Job
}

// New creates a new Scheduler. ctx is passed to every job run.
func New(ctx context.Context, opts Options) *Scheduler {
	log := opts.Logger.With().Str("component", "scheduler").Logger()
	cronLog := logging.NewCronLogger(log)

	s := &Scheduler{
		opts: opts,
		log:  log,
		cron: cron.New(cron.WithLogger(cronLog)),
	}

	chain := cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))
	s.cycleJob = chain.Then(cron.FuncJob(func() { s.runCycle(ctx) }))
	s.healthJob = chain.Then(cron.FuncJob(func() { s.checkHealth(ctx) }))
	return s
}

// Run schedules the jobs and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.opts.Interval)
	}

	s.cron.Schedule(cron.Every(s.opts.Interval), s.cycleJob)
	if s.opts.Health != nil && s.opts.HealthInterval > 0 {
		s.cron.Schedule(cron.Every(s.opts.HealthInterval), s.healthJob)
	}

	s.log.Info().
		Dur("interval", s.opts.Interval).
		Dur("health_interval", s.opts.HealthInterval).
		Bool("run_on_start", s.opts.RunOnStart).
		Msg("scheduler started")

	s.cron.Start()
	if s.opts.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.cycleJob.Run()
		}()
	}

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.opts.Cycler.RunCycle(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("scheduled cycle failed, retrying on next tick")
		return
	}
	s.log.Debug().Str("run_id", res.RunID).Str("outcome", string(res.Outcome)).Msg("scheduled cycle finished")
}

func (s *Scheduler) checkHealth(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.opts.Health.CheckHealth(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("health check failed")
		return
	}
	LogHealth(s.log, report)
}

// LogHealth writes one line per gauge plus a summary line.
func LogHealth(log zerolog.Logger, report *engine.HealthReport) {
	for _, g := range report.Gauges {
		log.Info().
			Str("metric", g.MetricName).
			Float64("value", g.MetricValue).
			Str("status", string(g.HealthStatus)).
			Msg("bot health")
	}

	ev := log.Info().Int64("checkpoint", report.Checkpoint).Str("overall", string(report.Overall()))
	if report.LastSnapshot != nil {
		ev = ev.Int64("snapshot_id", report.LastSnapshot.ID).Str("snapshot_status", string(report.LastSnapshot.Status))
	}
	ev.Msg("health check")
}
