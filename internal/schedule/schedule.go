// Package schedule runs the scrape pipeline on a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hokejlab/hokejnews/internal/types"
)

// RunFunc is one scrape run.
type RunFunc func(ctx context.Context) (types.RunSummary, error)

// Scheduler triggers scrape runs on a fixed interval. Runs never overlap:
// a tick that fires while a run is still going is skipped.
type Scheduler struct {
	interval time.Duration
	run      RunFunc
	logger   *slog.Logger
}

// New builds a scheduler calling run every interval.
func New(interval time.Duration, run RunFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		run:      run,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs one scrape immediately, then on every interval tick, until ctx
// is cancelled. A failed run is logged and never stops the schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler starting", "interval", s.interval)

	s.runOnce(ctx)

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule scrape job: %w", err)
	}

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	// Let an in-flight run finish before reporting shutdown.
	<-stopCtx.Done()

	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	started := time.Now()
	sum, err := s.run(ctx)
	if err != nil {
		s.logger.Error("scrape run failed", "error", err, "duration", time.Since(started))
		return
	}

	s.logger.Info("scrape run finished",
		"scanned", sum.Scanned,
		"inserted", sum.Inserted,
		"updated", sum.Updated,
		"unchanged", sum.Unchanged,
		"errors", sum.Errors,
		"duration", time.Since(started),
	)
}
