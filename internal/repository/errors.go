package repository

import "errors"

var (
	// ErrFetchFailed covers transport-level failures (DNS, connection, TLS).
	ErrFetchFailed = errors.New("page fetch failed")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrFetchTimeout is returned when the per-fetch deadline expires.
	ErrFetchTimeout = errors.New("page fetch timed out")
	// ErrParseFailed is returned when a body cannot be parsed as HTML.
	ErrParseFailed = errors.New("page parse failed")
	// ErrNotFound is returned by lookups and by an empty queue.
	ErrNotFound = errors.New("not found")
)
