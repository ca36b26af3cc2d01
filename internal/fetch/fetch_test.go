package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
)

func newTestClient(opts ...Option) *Client {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	limiter := ratelimit.NewSourceLimiter(time.Millisecond, nil)
	return NewClient("test", limiter, time.Millisecond, logger, opts...)
}

func TestGetTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("missing browser identity header, got %q", ua)
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := newTestClient().GetText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 3}`))
	}))
	defer srv.Close()

	var out struct {
		Total int `json:"total"`
	}
	if err := newTestClient().GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Total != 3 {
		t.Errorf("expected total 3, got %d", out.Total)
	}
}

func TestRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := newTestClient().GetText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetText after retries: %v", err)
	}
	if body != "recovered" {
		t.Errorf("unexpected body %q", body)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGivesUpAfterBoundedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient().GetText(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// 1 initial + 2 retries.
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := newTestClient().GetText(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt for 4xx, got %d", got)
	}
}

func TestRetryDelayHonorsRetryAfter(t *testing.T) {
	c := newTestClient() // baseDelay 1ms

	throttled := &model.HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: 42 * time.Second}
	if got := c.retryDelay(1, throttled); got != 42*time.Second {
		t.Errorf("expected Retry-After to win over backoff, got %v", got)
	}

	plain := &model.HTTPError{StatusCode: http.StatusBadGateway}
	if got := c.retryDelay(2, plain); got != 2*time.Millisecond {
		t.Errorf("expected linear backoff without Retry-After, got %v", got)
	}
}

func TestRetryAfterParsedFromResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient().doOnce(context.Background(), srv.URL, "application/json")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.RetryAfter != 120*time.Second {
		t.Errorf("expected 120s Retry-After, got %v", httpErr.RetryAfter)
	}
}

func TestCustomHeaderSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected auth header, got %q", got)
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := newTestClient(WithHeader("Authorization", "Bearer tok"))
	var out map[string]any
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
}
