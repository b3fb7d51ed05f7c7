// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"fmt"
	"time"
)

// RateLimitError reports that the E-utilities API throttled a request
// (HTTP 429). RetryAfter carries the server's suggested delay when the
// Retry-After header was present, zero otherwise.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded (HTTP %d, retry after %v)", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (HTTP %d)", e.StatusCode)
}

// ClientError reports any non-throttling failure: network faults,
// unexpected status codes, malformed responses, unknown identifiers.
// These are not worth retrying within a run.
type ClientError struct {
	ID  string
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("fetching abstract %s: %v", e.ID, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }
