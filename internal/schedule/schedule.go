// Package schedule runs the sync pipeline and the retention sweep on a cron
// cadence.
package schedule

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/store"
)

type syncer interface {
	SyncAll(ctx context.Context) []model.ScraperResult
}

type cleaner interface {
	CleanupOldJobs(ctx context.Context, maxAgeDays int) (store.RetentionSweep, error)
}

// Runner owns the cron instance. Each tick runs one sync cycle followed by
// the retention sweep; a sweep failure is logged and does not abort the tick.
type Runner struct {
	cron      *cron.Cron
	syncer    syncer
	cleaner   cleaner
	retention int
	logger    *slog.Logger
}

// New validates spec and registers the periodic job. Call Start to begin.
func New(spec string, sync syncer, clean cleaner, retentionDays int, logger *slog.Logger) (*Runner, error) {
	r := &Runner{
		cron:      cron.New(),
		syncer:    sync,
		cleaner:   clean,
		retention: retentionDays,
		logger:    logger.With("component", "schedule"),
	}
	if _, err := r.cron.AddFunc(spec, r.runCycle); err != nil {
		return nil, err
	}
	r.logger.Info("schedule registered", "spec", spec, "retention_days", retentionDays)
	return r, nil
}

// Start launches the cron loop in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts the cron loop and waits for a running tick to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Runner) runCycle() {
	ctx := context.Background()

	results := r.syncer.SyncAll(ctx)
	var added int
	for _, res := range results {
		added += res.JobsAdded
	}
	r.logger.Info("scheduled sync done", "collectors", len(results), "added", added)

	sweep, err := r.cleaner.CleanupOldJobs(ctx, r.retention)
	if err != nil {
		r.logger.Error("scheduled cleanup failed", "error", err)
		return
	}
	r.logger.Info("scheduled cleanup done", "deleted", sweep.Deleted)
}
