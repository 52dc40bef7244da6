package racer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/repository"
	"github.com/user/wikiracer/pkg/metrics"
	"github.com/user/wikiracer/pkg/utils"
	"go.uber.org/zap"
)

// DefaultMaxDepth is the depth limit used when callers have no preference.
const DefaultMaxDepth = 5

var (
	ErrInvalidURL      = errors.New("page must be an absolute http(s) URL")
	ErrInvalidMaxDepth = errors.New("max depth must be at least 1")
)

// Options tunes a Racer.
type Options struct {
	// Workers bounds concurrent page expansions within a level.
	Workers int
	// FetchTimeout is applied to every single page fetch.
	FetchTimeout time.Duration
	Hooks        Hooks
}

// Racer finds shortest paths between pages. It is safe for concurrent use;
// every FindPath call gets its own cache and visited set.
type Racer struct {
	fetcher repository.PageFetcher
	parser  repository.LinkParser
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(fetcher repository.PageFetcher, parser repository.LinkParser, opts Options, logger *zap.Logger, m *metrics.Metrics) *Racer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Racer{
		fetcher: fetcher,
		parser:  parser,
		opts:    opts,
		logger:  logger,
		metrics: m,
	}
}

// CanonicalPages validates start and end and rewrites them into the form the
// link parser emits, so a target typed with raw unicode still matches.
func CanonicalPages(start, end string) (string, string, error) {
	canonStart, err := utils.CanonicalURL(start)
	if err != nil || !utils.IsAbsoluteHTTPURL(canonStart) {
		return "", "", fmt.Errorf("start %q: %w", start, ErrInvalidURL)
	}
	canonEnd, err := utils.CanonicalURL(end)
	if err != nil || !utils.IsAbsoluteHTTPURL(canonEnd) {
		return "", "", fmt.Errorf("end %q: %w", end, ErrInvalidURL)
	}
	return canonStart, canonEnd, nil
}

// FindPath returns a shortest path from start to end of at most maxDepth hops.
// When no such path exists the result has OutcomeNotFound and a nil Path.
func (r *Racer) FindPath(ctx context.Context, start, end string, maxDepth int) (*entity.RaceResult, error) {
	start, end, err := CanonicalPages(start, end)
	if err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxDepth, maxDepth)
	}

	started := time.Now()
	logger := r.logger.With(zap.String("start", start), zap.String("end", end))

	extractor := NewExtractor(r.fetcher, r.parser, NewLinkCache(), r.opts.FetchTimeout, r.metrics)
	scheduler := NewScheduler(extractor, r.opts.Workers, r.opts.Hooks, logger, r.metrics)

	res, err := scheduler.Run(ctx, start, end, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("find path: %w", err)
	}

	res.Duration = time.Since(started)
	res.CompletedAt = time.Now()
	return res, nil
}
