package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
)

const programathorSearchPage = `<html><body>
<a href="/jobs/900-desenvolvedor-react">
  <div class="cell-list">
    <h3>Desenvolvedor React</h3>
    <span class="cell-list-company">Acme Labs</span>
    <span class="cell-list-location">Remoto</span>
    <div class="cell-list-tags"><span>React</span><span>TypeScript</span></div>
  </div>
</a>
<a href="/jobs/901-desenvolvedor-flutter">
  <div class="cell-list">
    <h3>Desenvolvedor Flutter Estágio</h3>
    <span class="cell-list-company">Beta Apps</span>
    <span class="cell-list-location">São Paulo</span>
    <div class="cell-list-tags"><span>Flutter</span><span>Dart</span></div>
  </div>
</a>
</body></html>`

const programathorDetailPage = `<html><body>
<div class="container-job-description">
Procuramos pessoa desenvolvedora para atuar no aplicativo da empresa, com
publicações na App Store e Google Play. Ambiente colaborativo com mentoria.
</div>
</body></html>`

func newTestProgramathor(t *testing.T, store model.JobStore) (*Programathor, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs-junior", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, programathorSearchPage)
	})
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, programathorDetailPage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewProgramathor(store, testLimiter(), time.Millisecond, testLogger())
	p.origin = srv.URL
	p.searches = []programathorSearch{{Path: "/jobs-junior", Name: "junior"}}
	return p, srv
}

func TestProgramathorScrape(t *testing.T) {
	store := newMemStore()
	p, srv := newTestProgramathor(t, store)

	result := p.Scrape(context.Background())

	if result.JobsFound != 2 {
		t.Errorf("expected 2 found, got %d", result.JobsFound)
	}
	if result.JobsAdded != 2 {
		t.Errorf("expected 2 added, got %d (errors: %v)", result.JobsAdded, result.Errors)
	}

	job, ok := store.get(srv.URL + "/jobs/900-desenvolvedor-react")
	if !ok {
		t.Fatal("react posting not stored")
	}
	// The expertise page is junior-scoped, so no marker means JUNIOR.
	if job.Level != model.LevelJunior {
		t.Errorf("expected JUNIOR fallback, got %s", job.Level)
	}
	if job.Company != "Acme Labs" {
		t.Errorf("unexpected company %q", job.Company)
	}
	if !job.Remote {
		t.Error("expected remote from the location chip")
	}
	hasReact, hasTS := false, false
	for _, tag := range job.Tags {
		switch tag {
		case "react":
			hasReact = true
		case "typescript":
			hasTS = true
		}
	}
	if !hasReact || !hasTS {
		t.Errorf("expected skill chips folded into tags, got %v", job.Tags)
	}

	intern, ok := store.get(srv.URL + "/jobs/901-desenvolvedor-flutter")
	if !ok {
		t.Fatal("flutter posting not stored")
	}
	if intern.Level != model.LevelInternship {
		t.Errorf("estágio marker should win, got %s", intern.Level)
	}
	if intern.Category != model.CategoryMobile {
		t.Errorf("flutter posting should be MOBILE, got %s", intern.Category)
	}
}

func TestProgramathorFallsBackToBareLinks(t *testing.T) {
	store := newMemStore()
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs-junior", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/jobs/950-dev-python">Desenvolvedor Python</a></body></html>`)
	})
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, programathorDetailPage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewProgramathor(store, testLimiter(), time.Millisecond, testLogger())
	p.origin = srv.URL
	p.searches = []programathorSearch{{Path: "/jobs-junior", Name: "junior"}}

	result := p.Scrape(context.Background())

	if result.JobsAdded != 1 {
		t.Errorf("expected the bare link strategy to add 1, got %d (errors: %v)", result.JobsAdded, result.Errors)
	}
	if _, ok := store.get(srv.URL + "/jobs/950-dev-python"); !ok {
		t.Error("python posting not stored")
	}
}
