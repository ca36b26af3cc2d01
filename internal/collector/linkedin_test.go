package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
)

const linkedinSearchPage = `<html><body>
<ul class="jobs-search__results-list">
  <li>
    <div class="base-card">
      <a class="base-card__full-link" href="/jobs/view/101?refId=abc"></a>
      <h3 class="base-search-card__title">Desenvolvedor Frontend Júnior</h3>
      <h4 class="base-search-card__subtitle">Acme</h4>
      <span class="job-search-card__location">São Paulo, SP</span>
      <time datetime="2026-08-20">1 week ago</time>
    </div>
  </li>
  <li>
    <div class="base-card">
      <a class="base-card__full-link" href="/jobs/view/102"></a>
      <h3 class="base-search-card__title">Desenvolvedor Sênior</h3>
      <h4 class="base-search-card__subtitle">Beta</h4>
    </div>
  </li>
  <li>
    <div class="base-card">
      <a class="base-card__full-link" href="/jobs/view/103"></a>
      <h3 class="base-search-card__title">Pessoa Desenvolvedora Jr</h3>
      <h4 class="base-search-card__subtitle">Gamma</h4>
      <span class="job-search-card__location">Remoto</span>
    </div>
  </li>
</ul>
</body></html>`

const linkedinDetailPage = `<html><body>
<div class="description__text">
Atuamos com React, Vue e CSS no frontend dos nossos produtos digitais.
Buscamos alguém em início de carreira com vontade de aprender.
</div>
</body></html>`

func newTestLinkedIn(t *testing.T, store model.JobStore, detailHits *atomic.Int32) (*LinkedIn, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, linkedinSearchPage)
	})
	mux.HandleFunc("/jobs/view/101", func(w http.ResponseWriter, r *http.Request) {
		detailHits.Add(1)
		fmt.Fprint(w, linkedinDetailPage)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	l := NewLinkedIn(store, testLimiter(), time.Millisecond, testLogger())
	l.origin = srv.URL
	l.searches = []linkedinSearch{
		{URL: srv.URL + "/search", Name: "desenvolvedor junior", Category: model.CategoryBackend},
	}
	return l, srv
}

func TestLinkedInScrape(t *testing.T) {
	store := newMemStore()
	var detailHits atomic.Int32
	l, srv := newTestLinkedIn(t, store, &detailHits)

	result := l.Scrape(context.Background())

	if result.JobsFound != 3 {
		t.Errorf("expected 3 found, got %d", result.JobsFound)
	}
	// The senior card has no junior/internship marker and is discarded.
	if result.JobsAdded != 2 {
		t.Errorf("expected 2 added, got %d (errors: %v)", result.JobsAdded, result.Errors)
	}

	job, ok := store.get(srv.URL + "/jobs/view/101")
	if !ok {
		t.Fatal("expected tracking params stripped from the stored URL")
	}
	if job.Company != "Acme" || job.Location != "São Paulo, SP" {
		t.Errorf("unexpected card fields: company=%q location=%q", job.Company, job.Location)
	}
	if job.Category != model.CategoryFrontend {
		t.Errorf("description should outscore the search fallback, got %s", job.Category)
	}
	if job.PostedAt == nil || job.PostedAt.Format("2006-01-02") != "2026-08-20" {
		t.Errorf("expected postedAt from the card timestamp, got %v", job.PostedAt)
	}

	// Detail fetch for 103 returns 404: card data plus the canned description
	// and the search's fallback category.
	fallback, ok := store.get(srv.URL + "/jobs/view/103")
	if !ok {
		t.Fatal("jr posting not stored")
	}
	if fallback.Description != linkedinDescFallback {
		t.Errorf("expected canned description, got %q", fallback.Description)
	}
	if fallback.Category != model.CategoryBackend {
		t.Errorf("expected search fallback category, got %s", fallback.Category)
	}
	if !fallback.Remote {
		t.Error("location Remoto should mark the job remote")
	}
	if fallback.Level != model.LevelJunior {
		t.Errorf("expected whole-word jr to classify JUNIOR, got %s", fallback.Level)
	}
}

func TestLinkedInSkipsKnownURLsBeforeDetailFetch(t *testing.T) {
	store := newMemStore()
	var detailHits atomic.Int32
	l, srv := newTestLinkedIn(t, store, &detailHits)

	seed := model.JobPosting{Title: "Desenvolvedor Frontend Júnior", URL: srv.URL + "/jobs/view/101"}
	if _, err := store.UpsertByURL(context.Background(), seed); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	result := l.Scrape(context.Background())

	if result.JobsAdded != 1 {
		t.Errorf("expected only the unseen jr posting, got %d", result.JobsAdded)
	}
	if detailHits.Load() != 0 {
		t.Errorf("expected no detail fetch for a known URL, got %d", detailHits.Load())
	}
}
