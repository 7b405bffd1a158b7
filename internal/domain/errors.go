package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPublished means the pageviews aggregation has no data for a day yet.
	ErrNotPublished = errors.New("pageviews not published for date")
	// ErrNoDataForDate is returned when the backward date walk ran out of retries.
	ErrNoDataForDate = errors.New("no trending data found for date")
	// ErrNotFound marks a page the detail endpoint reports as missing.
	ErrNotFound = errors.New("page not found")
	// ErrCacheMiss is returned by KV stores for absent keys.
	ErrCacheMiss = errors.New("cache miss")
	// ErrQuotaExceeded is returned when a cache payload exceeds the store quota.
	ErrQuotaExceeded = errors.New("cache quota exceeded")
	// ErrEmptySearchTerm rejects blank search queries.
	ErrEmptySearchTerm = errors.New("search term cannot be empty")
	// ErrUnsupportedLanguage rejects languages outside the configured set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// HTTPStatusError reports a non-2xx answer from an upstream endpoint.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("upstream %s returned %s", e.URL, e.Status)
}

// Is lets callers match 404 answers against ErrNotFound.
func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
