package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SourceLimiter enforces a minimum delay between consecutive requests to the
// same source. Delays are per source, not shared globally: a Gupy request
// never waits on a LinkedIn one.
type SourceLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: source name
	delays   map[string]time.Duration
	fallback time.Duration
}

// NewSourceLimiter creates a limiter with a fallback gap and optional
// per-source overrides.
func NewSourceLimiter(fallback time.Duration, overrides map[string]time.Duration) *SourceLimiter {
	delays := make(map[string]time.Duration, len(overrides))
	for source, d := range overrides {
		delays[source] = d
	}
	return &SourceLimiter{
		lastCall: make(map[string]time.Time),
		delays:   delays,
		fallback: fallback,
	}
}

// DelayFor returns the configured gap for a source, falling back to the
// limiter-wide default.
func (l *SourceLimiter) DelayFor(source string) time.Duration {
	if d, ok := l.delays[source]; ok {
		return d
	}
	return l.fallback
}

// Wait blocks until enough time has passed since the last request to the
// given source. The first request per source passes immediately. Returns an
// error only if the context is cancelled while waiting.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	l.mu.Lock()
	last, ok := l.lastCall[source]
	now := time.Now()

	if !ok {
		l.lastCall[source] = now
		l.mu.Unlock()
		return nil
	}

	minDelay := l.DelayFor(source)
	elapsed := now.Sub(last)
	if elapsed >= minDelay {
		l.lastCall[source] = now
		l.mu.Unlock()
		return nil
	}

	remaining := minDelay - elapsed
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", source, ctx.Err())
	case <-time.After(remaining):
	}

	l.mu.Lock()
	l.lastCall[source] = time.Now()
	l.mu.Unlock()

	return nil
}
