package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrMissingTitle means the detail page has no top-level heading and is
	// not treated as an article.
	ErrMissingTitle = errors.New("missing title heading")

	// ErrMissingContentContainer means none of the known content container
	// selectors matched on the detail page.
	ErrMissingContentContainer = errors.New("missing content container")

	// ErrContentTooShort means the extracted body text is below the
	// minimum article length and the page is judged not to be an article.
	ErrContentTooShort = errors.New("content too short")

	// ErrRobotsDisallowed means the site's robots policy forbids fetching
	// the URL for our user agent.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

	// ErrDuplicate is returned by stores when an insert collides with an
	// existing record for the same origin URL.
	ErrDuplicate = errors.New("duplicate origin_url")

	// ErrNotFound is returned by store lookups that match no record.
	ErrNotFound = errors.New("article not found")
)

// FetchError wraps a terminal fetch failure after retries are exhausted.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d, %d attempts): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch error for %s (%d attempts): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError wraps a detail-page extraction failure. Kind is one of the
// extraction sentinels above so callers can decide skip-vs-abort.
type ExtractError struct {
	URL  string
	Kind error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s: %v", e.URL, e.Kind)
}

func (e *ExtractError) Unwrap() error { return e.Kind }

// StorageError wraps a persistence failure that is not a duplicate-key
// conflict.
type StorageError struct {
	Op  string
	URL string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.URL, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
