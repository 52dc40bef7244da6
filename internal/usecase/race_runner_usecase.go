package usecase

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

// cleanupTimeout bounds writes that must outlive a cancelled worker context.
const cleanupTimeout = 5 * time.Second

// PathFinder is the search the runner drives; *racer.Racer satisfies it.
type PathFinder interface {
	FindPath(ctx context.Context, start, end string, maxDepth int) (*entity.RaceResult, error)
}

// RaceRunner defines the interface for executing races.
type RaceRunner interface {
	// ProcessNext runs the race at the front of the queue. It reports false
	// when the queue was empty.
	ProcessNext(ctx context.Context) (bool, error)
	// Run executes a single race synchronously.
	Run(ctx context.Context, start, end string, maxDepth int) (*entity.RaceResult, error)
}

type raceRunnerUseCase struct {
	finder     PathFinder
	queueRepo  repository.RaceQueueRepository
	statusRepo repository.RaceStatusRepository
	resultRepo repository.RaceResultRepository
	statusTTL  time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewRaceRunner creates a new RaceRunner use case.
func NewRaceRunner(
	finder PathFinder,
	queueRepo repository.RaceQueueRepository,
	statusRepo repository.RaceStatusRepository,
	resultRepo repository.RaceResultRepository,
	statusTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) RaceRunner {
	return &raceRunnerUseCase{
		finder:     finder,
		queueRepo:  queueRepo,
		statusRepo: statusRepo,
		resultRepo: resultRepo,
		statusTTL:  statusTTL,
		metrics:    m,
		logger:     logger,
	}
}

func (uc *raceRunnerUseCase) Run(ctx context.Context, start, end string, maxDepth int) (*entity.RaceResult, error) {
	res, err := uc.finder.FindPath(ctx, start, end, maxDepth)
	if err != nil {
		return nil, err
	}
	res.RaceID = utils.RaceID(start, end, maxDepth)
	uc.metrics.IncRaces(string(res.Outcome))
	return res, nil
}

func (uc *raceRunnerUseCase) ProcessNext(ctx context.Context) (bool, error) {
	race, err := uc.queueRepo.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Queue is empty, which is a normal state.
			return false, nil
		}
		return false, fmt.Errorf("failed to pop race from queue: %w", err)
	}
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		uc.metrics.SetRacesInQueue(size)
	}

	logger := uc.logger.With(zap.String("race_id", race.ID))
	logger.Info("processing race from queue",
		zap.String("start", race.Start),
		zap.String("end", race.End),
		zap.Int("max_depth", race.MaxDepth),
	)

	if err := uc.statusRepo.SetStatus(ctx, race.ID, entity.StatusRunning, uc.statusTTL); err != nil {
		// Status is informational only; the race still runs.
		logger.Warn("failed to mark race as running", zap.Error(err))
	}

	result, runErr := uc.Run(ctx, race.Start, race.End, race.MaxDepth)
	if runErr != nil {
		if ctx.Err() != nil {
			uc.requeue(race, logger)
			return true, ctx.Err()
		}
		logger.Error("race failed", zap.Error(runErr))
		uc.metrics.IncRaces(string(entity.OutcomeFailed))
		result = &entity.RaceResult{
			Start:         race.Start,
			End:           race.End,
			MaxDepth:      race.MaxDepth,
			Outcome:       entity.OutcomeFailed,
			FailureReason: runErr.Error(),
			CompletedAt:   time.Now(),
		}
	}
	result.RaceID = race.ID

	// A finished race is stored even when shutdown began after the search returned.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := uc.resultRepo.Save(persistCtx, result); err != nil {
		// Without a durable result the race must not stay "running" until the TTL.
		if rmErr := uc.statusRepo.RemoveStatus(persistCtx, race.ID); rmErr != nil {
			logger.Warn("failed to clear status of unsaved race", zap.Error(rmErr))
		}
		return true, fmt.Errorf("failed to save result of race %s: %w", race.ID, err)
	}
	if err := uc.statusRepo.RemoveStatus(persistCtx, race.ID); err != nil {
		// This is not a critical error, the durable result takes precedence.
		logger.Warn("failed to clear transient status", zap.Error(err))
	}

	logger.Info("race finished",
		zap.String("outcome", string(result.Outcome)),
		zap.Strings("path", result.Path),
		zap.Int("pages_expanded", result.PagesExpanded),
		zap.Duration("duration", result.Duration),
	)
	return true, nil
}

// requeue puts back a race interrupted by shutdown so another worker can pick it up.
func (uc *raceRunnerUseCase) requeue(race *entity.Race, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := uc.queueRepo.Push(ctx, race); err != nil {
		logger.Error("failed to requeue interrupted race", zap.Error(err))
		return
	}
	if err := uc.statusRepo.SetStatus(ctx, race.ID, entity.StatusPending, uc.statusTTL); err != nil {
		logger.Warn("failed to mark requeued race as pending", zap.Error(err))
	}
	logger.Info("requeued interrupted race")
}
