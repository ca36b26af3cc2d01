package model

import (
	"fmt"
	"time"
)

// HTTPError is a non-success response from a job source. The fetch layer
// inspects StatusCode to decide whether a request is worth retrying, and a
// throttling source's Retry-After replaces the usual linear backoff.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // parsed Retry-After header, zero when absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: status %d", e.Err, e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
