package racer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/wikiracer/internal/repository"
	"github.com/user/wikiracer/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Expander reveals the outbound edges of a page. The search never assumes the
// graph is known beyond what Expand has returned.
type Expander interface {
	// Expand returns the outbound links of page. A non-nil error means the
	// page contributes no links; it never aborts the search.
	Expand(ctx context.Context, page string) ([]string, error)
}

// Extractor is the Expander backed by a PageFetcher and a LinkParser.
// Successful extractions are memoized in a LinkCache; failures are not.
type Extractor struct {
	fetcher repository.PageFetcher
	parser  repository.LinkParser
	cache   *LinkCache
	timeout time.Duration
	metrics *metrics.Metrics
	flight  singleflight.Group
}

// NewExtractor creates an Extractor writing into cache. A zero timeout leaves
// deadlines to the caller's context and the fetcher.
func NewExtractor(fetcher repository.PageFetcher, parser repository.LinkParser, cache *LinkCache, timeout time.Duration, m *metrics.Metrics) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		parser:  parser,
		cache:   cache,
		timeout: timeout,
		metrics: m,
	}
}

// Expand returns the article links of page, fetching it at most once while
// its result is cached. Concurrent calls for the same page share one fetch.
func (e *Extractor) Expand(ctx context.Context, page string) ([]string, error) {
	if links, ok := e.cache.Get(page); ok {
		e.metrics.IncLinkCacheHits()
		return links, nil
	}

	v, err, _ := e.flight.Do(page, func() (interface{}, error) {
		if links, ok := e.cache.Get(page); ok {
			return links, nil
		}
		return e.extract(ctx, page)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (e *Extractor) extract(ctx context.Context, page string) ([]string, error) {
	start := time.Now()

	fetchCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body, err := e.fetcher.Fetch(fetchCtx, page)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, repository.ErrFetchTimeout) {
			err = fmt.Errorf("%w: %w", repository.ErrFetchTimeout, err)
		}
		e.metrics.ObserveFetch(ErrorType(err), time.Since(start))
		return nil, fmt.Errorf("fetch %s: %w", page, err)
	}

	links, err := e.parser.Parse(body, page)
	if err != nil {
		if !errors.Is(err, repository.ErrParseFailed) {
			err = fmt.Errorf("%w: %w", repository.ErrParseFailed, err)
		}
		e.metrics.ObserveFetch(ErrorType(err), time.Since(start))
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}

	links = e.cache.Put(page, links)
	e.metrics.ObserveFetch("", time.Since(start))
	return links, nil
}

// ErrorType maps an extraction error to a short label for metrics and storage.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, repository.ErrParseFailed):
		return "parse"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "fetch"
	}
}
