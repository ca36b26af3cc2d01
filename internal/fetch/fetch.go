// Package fetch is the shared outbound HTTP layer for collectors: a browser
// identity header set, a bounded retry with linear backoff, and a hook into
// the per-source rate limiter so detail fetches respect the same gap as page
// fetches.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client issues rate-limited, retried GET requests on behalf of one source.
type Client struct {
	http      *http.Client
	limiter   *ratelimit.SourceLimiter
	source    string
	baseDelay time.Duration // linear backoff unit: baseDelay * attempt
	headers   map[string]string
	logger    *slog.Logger
}

// Option tweaks a Client at construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithHeader adds a request header sent on every call.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient builds a fetch client for one source. baseDelay doubles as the
// backoff unit: retry n sleeps baseDelay*n.
func NewClient(source string, limiter *ratelimit.SourceLimiter, baseDelay time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		limiter:   limiter,
		source:    source,
		baseDelay: baseDelay,
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept-Language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetText fetches url and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON fetches url and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s response: %w", c.source, err)
	}
	return nil
}

// get performs the rate-limited request with up to maxRetries additional
// attempts. Backoff grows linearly (baseDelay, 2*baseDelay) unless the
// source asked for a specific pause via Retry-After.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt, lastErr)
			c.logger.Warn("retrying fetch",
				"source", c.source,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s: %w", c.source, ctx.Err())
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx, c.source); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// retryDelay picks the pause before retry attempt n. A throttling source's
// Retry-After wins over the linear baseDelay*n backoff.
func (c *Client) retryDelay(attempt int, lastErr error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(lastErr, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}
	return c.baseDelay * time.Duration(attempt)
}

func (c *Client) doOnce(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", c.source, err)
	}
	req.Header.Set("Accept", accept)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", c.source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", c.source, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s fetch %s", c.source, url),
		}
	}

	return body, nil
}

// isRetryable treats transport errors and 429/5xx as transient. Context
// cancellation and other 4xx are terminal.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		return httpErr.StatusCode >= 500
	}

	return true
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
