package fetcher

import "context"

// Fetcher retrieves the body of a URL.
type Fetcher interface {
	// Fetch returns the response body for a GET of the given URL.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
