package shopcrawl

import "context"

// Fetcher retrieves page bodies from URLs.
type Fetcher interface {
	// Fetch performs a GET request and returns the response body.
	// Non-success responses are returned as errors.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (body string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}
