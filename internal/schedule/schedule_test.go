package schedule

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeSyncer struct {
	calls int
}

func (f *fakeSyncer) SyncAll(context.Context) []model.ScraperResult {
	f.calls++
	return []model.ScraperResult{{Source: "fake", JobsAdded: 2, Errors: []string{}}}
}

type fakeCleaner struct {
	days  int
	calls int
	err   error
}

func (f *fakeCleaner) CleanupOldJobs(_ context.Context, maxAgeDays int) (store.RetentionSweep, error) {
	f.calls++
	f.days = maxAgeDays
	return store.RetentionSweep{Deleted: 1}, f.err
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	if _, err := New("every twelve hours", &fakeSyncer{}, &fakeCleaner{}, 45, testLogger()); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestNewAcceptsStandardSpec(t *testing.T) {
	if _, err := New("0 */12 * * *", &fakeSyncer{}, &fakeCleaner{}, 45, testLogger()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCycleSyncsThenCleans(t *testing.T) {
	sync := &fakeSyncer{}
	clean := &fakeCleaner{}
	r, err := New("0 */12 * * *", sync, clean, 30, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r.runCycle()

	if sync.calls != 1 {
		t.Errorf("expected 1 sync, got %d", sync.calls)
	}
	if clean.calls != 1 || clean.days != 30 {
		t.Errorf("expected cleanup with 30 days, got calls=%d days=%d", clean.calls, clean.days)
	}
}

func TestRunCycleSurvivesCleanupFailure(t *testing.T) {
	sync := &fakeSyncer{}
	clean := &fakeCleaner{err: errors.New("disk full")}
	r, err := New("0 */12 * * *", sync, clean, 45, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r.runCycle()
	r.runCycle()

	if sync.calls != 2 {
		t.Errorf("a failing sweep must not stop later cycles, got %d syncs", sync.calls)
	}
}
