package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/pipeline"
	"github.com/vagasjr/vagasjr/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeCollector struct {
	name   string
	scrape func(ctx context.Context) model.ScraperResult
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Scrape(ctx context.Context) model.ScraperResult {
	return f.scrape(ctx)
}

func newTestServer(t *testing.T, collectors ...model.Collector) (*Server, *store.SQLiteStore, *httptest.Server) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	orch := pipeline.New(testLogger(), collectors...)
	s := New(":0", st, orch, 45, testLogger())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, st, ts
}

func seedJob(t *testing.T, st *store.SQLiteStore, url, title string, category model.Category, remote bool) {
	t.Helper()
	ctx := context.Background()
	src, err := st.GetOrCreateSource(ctx, "Gupy", "https://portal.gupy.io")
	if err != nil {
		t.Fatalf("GetOrCreateSource: %v", err)
	}
	job := model.JobPosting{
		Title:    title,
		Company:  "Acme",
		URL:      url,
		Level:    model.LevelJunior,
		Category: category,
		Remote:   remote,
		SourceID: src.ID,
		Tags:     []string{"react"},
	}
	if _, err := st.UpsertByURL(ctx, job); err != nil {
		t.Fatalf("seeding job: %v", err)
	}
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
	return resp
}

func TestListJobsFiltersAndPaginates(t *testing.T) {
	_, st, ts := newTestServer(t)
	seedJob(t, st, "https://example.com/1", "Desenvolvedor Frontend Júnior", model.CategoryFrontend, true)
	seedJob(t, st, "https://example.com/2", "Desenvolvedor Backend Júnior", model.CategoryBackend, false)

	var page jobsPage
	resp := getJSON(t, ts.URL+"/api/jobs?category=frontend&remote=true", &page)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if page.Total != 1 || len(page.Jobs) != 1 {
		t.Fatalf("expected 1 frontend remote job, got total=%d len=%d", page.Total, len(page.Jobs))
	}
	if page.Jobs[0].Category != model.CategoryFrontend {
		t.Errorf("unexpected category %s", page.Jobs[0].Category)
	}
	if page.Page != 1 || page.Limit != defaultPageSize {
		t.Errorf("unexpected pagination defaults: page=%d limit=%d", page.Page, page.Limit)
	}
}

func TestGetJobByID(t *testing.T) {
	_, st, ts := newTestServer(t)
	seedJob(t, st, "https://example.com/1", "Desenvolvedor Júnior", model.CategoryFullstack, false)

	var page jobsPage
	getJSON(t, ts.URL+"/api/jobs", &page)
	if len(page.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(page.Jobs))
	}

	var job model.JobPosting
	resp := getJSON(t, ts.URL+"/api/jobs/"+page.Jobs[0].ID, &job)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if job.URL != "https://example.com/1" {
		t.Errorf("unexpected job %+v", job)
	}

	resp = getJSON(t, ts.URL+"/api/jobs/does-not-exist", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestSyncEndpointGuardsConcurrency(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := &fakeCollector{name: "slow", scrape: func(context.Context) model.ScraperResult {
		close(started)
		<-release
		return model.ScraperResult{Source: "slow", JobsFound: 1, JobsAdded: 1, Errors: []string{}}
	}}
	_, _, ts := newTestServer(t, blocking)

	resp := postJSON(t, ts.URL+"/api/sync", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	<-started

	resp = postJSON(t, ts.URL+"/api/sync", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 while syncing, got %d", resp.StatusCode)
	}

	var status syncStatus
	getJSON(t, ts.URL+"/api/sync/status", &status)
	if !status.Syncing {
		t.Error("expected syncing=true while the cycle is blocked")
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		getJSON(t, ts.URL+"/api/sync/status", &status)
		if !status.Syncing && len(status.LastResults) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sync never finished: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status.LastResults[0].JobsAdded != 1 || status.LastRun == nil {
		t.Errorf("unexpected final status %+v", status)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	_, st, ts := newTestServer(t)

	ctx := context.Background()
	src, err := st.GetOrCreateSource(ctx, "Gupy", "https://portal.gupy.io")
	if err != nil {
		t.Fatalf("GetOrCreateSource: %v", err)
	}
	oldDate := time.Now().UTC().AddDate(0, 0, -60)
	job := model.JobPosting{
		Title:    "Desenvolvedor Antigo",
		Company:  "Acme",
		URL:      "https://example.com/old",
		Level:    model.LevelJunior,
		Category: model.CategoryBackend,
		SourceID: src.ID,
		PostedAt: &oldDate,
	}
	if _, err := st.UpsertByURL(ctx, job); err != nil {
		t.Fatalf("seeding job: %v", err)
	}

	var sweep store.RetentionSweep
	resp := postJSON(t, ts.URL+"/api/cleanup", &sweep)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if sweep.Deleted != 1 {
		t.Errorf("expected 1 deleted, got %+v", sweep)
	}

	resp = postJSON(t, ts.URL+"/api/cleanup?days=zero", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad days, got %d", resp.StatusCode)
	}
}

func TestStatsAndDedupeEndpoints(t *testing.T) {
	_, st, ts := newTestServer(t)
	seedJob(t, st, "https://example.com/1", "Desenvolvedor Júnior", model.CategoryBackend, true)

	var stats store.Stats
	resp := getJSON(t, ts.URL+"/api/stats", &stats)
	if resp.StatusCode != http.StatusOK || stats.Total != 1 || stats.Remote != 1 {
		t.Errorf("unexpected stats response: %d %+v", resp.StatusCode, stats)
	}

	var sweep store.DuplicateSweep
	resp = postJSON(t, ts.URL+"/api/dedupe", &sweep)
	if resp.StatusCode != http.StatusOK || sweep.Removed != 0 {
		t.Errorf("unexpected dedupe response: %d %+v", resp.StatusCode, sweep)
	}
}
