package repository

import "context"

// PageFetcher defines the contract for retrieving a page body.
type PageFetcher interface {
	// Fetch performs a GET of url. Errors wrap ErrFetchFailed, ErrUnexpectedStatus
	// or ErrFetchTimeout.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
