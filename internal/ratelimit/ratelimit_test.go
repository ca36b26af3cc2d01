package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestFirstRequestPassesImmediately(t *testing.T) {
	l := NewSourceLimiter(500*time.Millisecond, nil)

	start := time.Now()
	if err := l.Wait(context.Background(), "gupy"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request waited %v, expected no delay", elapsed)
	}
}

func TestSecondRequestWaits(t *testing.T) {
	l := NewSourceLimiter(200*time.Millisecond, nil)
	ctx := context.Background()

	if err := l.Wait(ctx, "gupy"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "gupy"); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("second request waited only %v, expected ~200ms", elapsed)
	}
}

func TestSourcesAreIndependent(t *testing.T) {
	l := NewSourceLimiter(time.Second, nil)
	ctx := context.Background()

	if err := l.Wait(ctx, "gupy"); err != nil {
		t.Fatalf("Wait gupy: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "linkedin"); err != nil {
		t.Fatalf("Wait linkedin: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("different source waited %v, expected no delay", elapsed)
	}
}

func TestPerSourceOverride(t *testing.T) {
	l := NewSourceLimiter(time.Second, map[string]time.Duration{"vagas": 2 * time.Second})

	if got := l.DelayFor("vagas"); got != 2*time.Second {
		t.Errorf("DelayFor(vagas) = %v, want 2s", got)
	}
	if got := l.DelayFor("gupy"); got != time.Second {
		t.Errorf("DelayFor(gupy) = %v, want fallback 1s", got)
	}
}

func TestWaitCancelledContext(t *testing.T) {
	l := NewSourceLimiter(5*time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx, "gupy"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	cancel()
	if err := l.Wait(ctx, "gupy"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
