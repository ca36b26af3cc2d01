package collector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testLimiter() *ratelimit.SourceLimiter {
	return ratelimit.NewSourceLimiter(time.Millisecond, nil)
}

// memStore is an in-memory JobStore for collector tests. Dedup is exact-URL
// only; the fuzzy logic has its own tests in the store package.
type memStore struct {
	mu      sync.Mutex
	sources map[string]model.Source
	jobs    map[string]model.JobPosting // keyed by URL
	failURL string                      // UpsertByURL errors on this URL
}

func newMemStore() *memStore {
	return &memStore{
		sources: make(map[string]model.Source),
		jobs:    make(map[string]model.JobPosting),
	}
}

func (m *memStore) GetOrCreateSource(_ context.Context, name, url string) (model.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src, ok := m.sources[name]; ok {
		src.URL = url
		m.sources[name] = src
		return src, nil
	}
	src := model.Source{ID: fmt.Sprintf("src-%d", len(m.sources)+1), Name: name, URL: url}
	m.sources[name] = src
	return src, nil
}

func (m *memStore) FindByURL(_ context.Context, url string) (*model.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[url]; ok {
		return &job, nil
	}
	return nil, nil
}

func (m *memStore) UpsertByURL(_ context.Context, job model.JobPosting) (*model.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.URL == m.failURL {
		return nil, fmt.Errorf("simulated store failure")
	}
	if _, ok := m.jobs[job.URL]; ok {
		return nil, nil
	}
	job.ID = fmt.Sprintf("job-%d", len(m.jobs)+1)
	m.jobs[job.URL] = job
	return &job, nil
}

func (m *memStore) get(url string) (model.JobPosting, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[url]
	return job, ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
