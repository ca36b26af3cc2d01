// Package server exposes the catalog and the sync pipeline over an HTTP API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/pipeline"
	"github.com/vagasjr/vagasjr/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	shutdownTimeout = 10 * time.Second
)

// Server wires the job store and the sync orchestrator into HTTP handlers.
type Server struct {
	store        *store.SQLiteStore
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
	retention    int // days, for the cleanup endpoint default

	httpServer *http.Server

	mu          sync.Mutex
	lastResults []model.ScraperResult
	lastRun     *time.Time
}

func New(addr string, st *store.SQLiteStore, orch *pipeline.Orchestrator, retentionDays int, logger *slog.Logger) *Server {
	s := &Server{
		store:        st,
		orchestrator: orch,
		logger:       logger.With("component", "server"),
		retention:    retentionDays,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router builds the route table. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	api.HandleFunc("/sources", s.handleSources).Methods(http.MethodGet)
	api.HandleFunc("/tags", s.handleTags).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	api.HandleFunc("/sync/status", s.handleSyncStatus).Methods(http.MethodGet)
	api.HandleFunc("/cleanup", s.handleCleanup).Methods(http.MethodPost)
	api.HandleFunc("/dedupe", s.handleDedupe).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}

// ListenAndServe blocks until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

type jobsPage struct {
	Jobs  []model.JobPosting `json:"jobs"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := store.Filter{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	for _, lvl := range splitParam(q.Get("level")) {
		filter.Levels = append(filter.Levels, model.Level(strings.ToUpper(lvl)))
	}
	for _, cat := range splitParam(q.Get("category")) {
		filter.Categories = append(filter.Categories, model.Category(strings.ToUpper(cat)))
	}
	filter.SourceIDs = splitParam(q.Get("source"))
	filter.Tags = splitParam(q.Get("tag"))
	if v := q.Get("remote"); v != "" {
		remote := v == "true" || v == "1"
		filter.Remote = &remote
	}
	if v := q.Get("maxAgeDays"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 {
			writeError(w, http.StatusBadRequest, "maxAgeDays must be a positive integer")
			return
		}
		filter.MaxAge = time.Duration(days) * 24 * time.Hour
	}

	jobs, total, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing jobs failed")
		return
	}
	if jobs == nil {
		jobs = []model.JobPosting{}
	}
	writeJSON(w, http.StatusOK, jobsPage{Jobs: jobs, Total: total, Page: page, Limit: limit})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("getting job", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "getting job failed")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.Sources(r.Context())
	if err != nil {
		s.logger.Error("listing sources", "error", err)
		writeError(w, http.StatusInternalServerError, "listing sources failed")
		return
	}
	if sources == nil {
		sources = []model.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.Tags(r.Context())
	if err != nil {
		s.logger.Error("listing tags", "error", err)
		writeError(w, http.StatusInternalServerError, "listing tags failed")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.logger.Error("collecting stats", "error", err)
		writeError(w, http.StatusInternalServerError, "collecting stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleSync kicks off a cycle in the background. The request returns as
// soon as the cycle is accepted; progress is visible via /api/sync/status.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator.IsSyncing() {
		writeError(w, http.StatusConflict, "sync already running")
		return
	}

	go func() {
		results := s.orchestrator.SyncAll(context.Background())
		if len(results) == 0 {
			return // lost the race to another cycle
		}
		now := time.Now().UTC()
		s.mu.Lock()
		s.lastResults = results
		s.lastRun = &now
		s.mu.Unlock()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type syncStatus struct {
	Syncing     bool                  `json:"syncing"`
	LastRun     *time.Time            `json:"lastRun"`
	LastResults []model.ScraperResult `json:"lastResults"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := syncStatus{
		Syncing:     s.orchestrator.IsSyncing(),
		LastRun:     s.lastRun,
		LastResults: s.lastResults,
	}
	s.mu.Unlock()
	if status.LastResults == nil {
		status.LastResults = []model.ScraperResult{}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	days := s.retention
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	sweep, err := s.store.CleanupOldJobs(r.Context(), days)
	if err != nil {
		s.logger.Error("cleanup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, sweep)
}

func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	sweep, err := s.store.RemoveDuplicates(r.Context())
	if err != nil {
		s.logger.Error("dedupe failed", "error", err)
		writeError(w, http.StatusInternalServerError, "dedupe failed")
		return
	}
	writeJSON(w, http.StatusOK, sweep)
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
