// Package pipeline runs the collectors as one sequential sync cycle.
// Sequential on purpose: the sources are rate limited individually, and a
// single cycle keeps store write pressure predictable.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
)

// Orchestrator owns the sync cycle. At most one cycle runs at a time; a
// second SyncAll while one is in flight returns immediately with no results.
type Orchestrator struct {
	collectors []model.Collector
	logger     *slog.Logger
	running    atomic.Bool
}

func New(logger *slog.Logger, collectors ...model.Collector) *Orchestrator {
	return &Orchestrator{
		collectors: collectors,
		logger:     logger.With("component", "pipeline"),
	}
}

// IsSyncing reports whether a cycle is currently in flight.
func (o *Orchestrator) IsSyncing() bool {
	return o.running.Load()
}

// SyncAll runs every collector in order and returns their results. A
// collector that panics contributes a result with one error entry; the
// remaining collectors still run.
func (o *Orchestrator) SyncAll(ctx context.Context) []model.ScraperResult {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Warn("sync requested while another cycle is running, skipping")
		return []model.ScraperResult{}
	}
	defer o.running.Store(false)

	start := time.Now()
	o.logger.Info("sync cycle starting", "collectors", len(o.collectors))

	results := make([]model.ScraperResult, 0, len(o.collectors))
	for _, c := range o.collectors {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("sync cycle cancelled", "collector", c.Name(), "error", err)
			results = append(results, model.ScraperResult{
				Source: c.Name(),
				Errors: []string{fmt.Sprintf("cancelled: %v", err)},
			})
			continue
		}
		results = append(results, o.runOne(ctx, c))
	}

	var found, added, errs int
	for _, r := range results {
		found += r.JobsFound
		added += r.JobsAdded
		errs += len(r.Errors)
	}
	o.logger.Info("sync cycle finished",
		"duration", time.Since(start).Round(time.Millisecond),
		"found", found,
		"added", added,
		"errors", errs,
	)
	return results
}

// runOne isolates a collector crash to its own result.
func (o *Orchestrator) runOne(ctx context.Context, c model.Collector) (result model.ScraperResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("collector panicked", "collector", c.Name(), "panic", r)
			result = model.ScraperResult{
				Source: c.Name(),
				Errors: []string{fmt.Sprintf("collector crashed: %v", r)},
			}
		}
	}()

	o.logger.Info("running collector", "collector", c.Name())
	result = c.Scrape(ctx)
	o.logger.Info("collector done",
		"collector", c.Name(),
		"found", result.JobsFound,
		"added", result.JobsAdded,
		"errors", len(result.Errors),
	)
	return result
}
