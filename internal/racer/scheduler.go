package racer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent expansions within a level when Options.Workers is unset.
const DefaultWorkers = 16

// Hooks are optional progress callbacks. They are invoked serially and must not
// block; they never influence the search.
type Hooks struct {
	// OnLevelStart(depth, queued) is called before a level is expanded.
	OnLevelStart func(depth, queued int)

	// OnLevelComplete(stats) is called after every task of a level has finished.
	OnLevelComplete func(stats entity.LevelStats)

	// OnFetchFailure(page, err) is called when a page contributes no links
	// because its extraction failed.
	OnFetchFailure func(page string, err error)
}

type frontierEntry struct {
	page string
	path entity.Path
}

// levelResult is what one level hands back to the loop.
type levelResult struct {
	next     []frontierEntry
	found    entity.Path
	expanded int
	failed   []entity.FailedPage
	stats    entity.LevelStats
}

// Scheduler runs the level-by-level search over an Expander.
type Scheduler struct {
	expander Expander
	workers  int
	hooks    Hooks
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewScheduler(expander Expander, workers int, hooks Hooks, logger *zap.Logger, m *metrics.Metrics) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		expander: expander,
		workers:  workers,
		hooks:    hooks,
		logger:   logger,
		metrics:  m,
	}
}

// Run searches from start towards target, expanding at most maxDepth levels.
// A nil error with an OutcomeNotFound result means the depth limit was reached
// or the frontier ran dry. Errors are returned only for caller cancellation or
// a task that could not complete.
func (s *Scheduler) Run(ctx context.Context, start, target string, maxDepth int) (*entity.RaceResult, error) {
	res := &entity.RaceResult{
		Start:    start,
		End:      target,
		MaxDepth: maxDepth,
		Outcome:  entity.OutcomeNotFound,
	}

	visited := NewVisitedSet()
	visited.Add(start)

	if start == target {
		res.Outcome = entity.OutcomeFound
		res.Path = entity.Path{start}
		return res, nil
	}

	frontier := []frontierEntry{{page: start, path: entity.Path{start}}}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		s.logger.Info("processing depth level",
			zap.Int("depth", depth),
			zap.Int("queued", len(frontier)),
		)
		s.metrics.SetFrontierSize(len(frontier))
		if s.hooks.OnLevelStart != nil {
			s.hooks.OnLevelStart(depth, len(frontier))
		}

		lr, err := s.expandLevel(ctx, depth, frontier, target, visited)
		if err != nil {
			return nil, err
		}

		res.DepthReached = depth
		res.PagesExpanded += lr.expanded
		res.FailedPages = append(res.FailedPages, lr.failed...)
		res.Levels = append(res.Levels, lr.stats)
		s.metrics.ObserveLevel(lr.stats.Elapsed)
		if s.hooks.OnLevelComplete != nil {
			s.hooks.OnLevelComplete(lr.stats)
		}

		if lr.found != nil {
			s.logger.Info("target reached",
				zap.Int("depth", depth),
				zap.Strings("path", lr.found),
			)
			res.Outcome = entity.OutcomeFound
			res.Path = lr.found
			return res, nil
		}

		s.logger.Info("depth level completed",
			zap.Int("depth", depth),
			zap.Int("discovered", len(lr.next)),
			zap.Int("failed", lr.stats.Failed),
		)
		frontier = lr.next
	}

	s.metrics.SetFrontierSize(0)
	s.logger.Info("no path found within depth limit",
		zap.Int("max_depth", maxDepth),
		zap.Int("depth_reached", res.DepthReached),
	)
	return res, nil
}

// expandLevel expands every frontier entry concurrently and merges the results.
// The merge runs under one lock, which makes the visited check-and-insert and the
// next-frontier append atomic with respect to other tasks. The first task to
// see the target resolves the level and cancels its siblings; their results
// are discarded.
func (s *Scheduler) expandLevel(ctx context.Context, depth int, frontier []frontierEntry, target string, visited *VisitedSet) (*levelResult, error) {
	started := time.Now()

	levelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(levelCtx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	lr := &levelResult{
		stats: entity.LevelStats{Depth: depth, Queued: len(frontier)},
	}

	for _, entry := range frontier {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("expand %s: panic: %v", entry.page, r)
				}
			}()

			if gctx.Err() != nil {
				return nil
			}
			links, expandErr := s.expander.Expand(gctx, entry.page)

			mu.Lock()
			defer mu.Unlock()

			if lr.found != nil {
				return nil
			}
			if expandErr != nil {
				if gctx.Err() != nil {
					// Sibling found the target or the caller gave up.
					return nil
				}
				s.recordFailure(lr, entry.page, expandErr)
				return nil
			}

			lr.expanded++
			for _, link := range links {
				if link == target {
					lr.found = entry.path.Extend(link)
					cancel()
					return nil
				}
				if visited.Add(link) {
					lr.next = append(lr.next, frontierEntry{page: link, path: entry.path.Extend(link)})
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("depth %d: %w", depth, err)
	}
	if lr.found == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("depth %d: %w", depth, err)
		}
	}

	lr.stats.Discovered = len(lr.next)
	lr.stats.Elapsed = time.Since(started)
	return lr, nil
}

// recordFailure must be called with the level lock held.
func (s *Scheduler) recordFailure(lr *levelResult, page string, err error) {
	lr.stats.Failed++
	lr.failed = append(lr.failed, entity.FailedPage{URL: page, Reason: err.Error()})
	s.logger.Warn("failed to extract links",
		zap.String("url", page),
		zap.String("error_type", ErrorType(err)),
		zap.Error(err),
	)
	if s.hooks.OnFetchFailure != nil {
		s.hooks.OnFetchFailure(page, err)
	}
}
