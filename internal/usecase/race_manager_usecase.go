package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/racer"
	"github.com/user/wikiracer/internal/repository"
	"github.com/user/wikiracer/pkg/metrics"
	"github.com/user/wikiracer/pkg/utils"
	"go.uber.org/zap"
)

var (
	ErrRaceInProgress = errors.New("race is already queued or running")
)

// RaceManager defines the interface for submitting races and checking on them.
type RaceManager interface {
	Submit(ctx context.Context, start, end string, maxDepth int) (string, error)
	GetStatus(ctx context.Context, raceID string) (*entity.RaceStatus, error)
}

type raceManagerUseCase struct {
	queueRepo       repository.RaceQueueRepository
	statusRepo      repository.RaceStatusRepository
	resultRepo      repository.RaceResultRepository
	statusTTL       time.Duration
	defaultMaxDepth int
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

// NewRaceManager creates a new RaceManager use case. A zero maxDepth on
// Submit means defaultMaxDepth.
func NewRaceManager(
	queueRepo repository.RaceQueueRepository,
	statusRepo repository.RaceStatusRepository,
	resultRepo repository.RaceResultRepository,
	statusTTL time.Duration,
	defaultMaxDepth int,
	m *metrics.Metrics,
	logger *zap.Logger,
) RaceManager {
	if defaultMaxDepth <= 0 {
		defaultMaxDepth = racer.DefaultMaxDepth
	}
	return &raceManagerUseCase{
		queueRepo:       queueRepo,
		statusRepo:      statusRepo,
		resultRepo:      resultRepo,
		statusTTL:       statusTTL,
		defaultMaxDepth: defaultMaxDepth,
		metrics:         m,
		logger:          logger,
	}
}

func (uc *raceManagerUseCase) Submit(ctx context.Context, start, end string, maxDepth int) (string, error) {
	if maxDepth == 0 {
		maxDepth = uc.defaultMaxDepth
	}
	start, end, err := validateRace(start, end, maxDepth)
	if err != nil {
		return "", err
	}

	raceID := utils.RaceID(start, end, maxDepth)

	// Claiming the status first makes the duplicate check atomic, and a worker
	// popping the race immediately finds a status to overwrite.
	claimed, err := uc.statusRepo.SetStatusIfAbsent(ctx, raceID, entity.StatusPending, uc.statusTTL)
	if err != nil {
		return "", fmt.Errorf("mark race %s pending: %w", raceID, err)
	}
	if !claimed {
		return raceID, ErrRaceInProgress
	}

	race := &entity.Race{
		ID:          raceID,
		Start:       start,
		End:         end,
		MaxDepth:    maxDepth,
		SubmittedAt: time.Now().UTC(),
	}
	if err := uc.queueRepo.Push(ctx, race); err != nil {
		if rmErr := uc.statusRepo.RemoveStatus(ctx, raceID); rmErr != nil {
			uc.logger.Warn("failed to clear pending status after queue error", zap.String("race_id", raceID), zap.Error(rmErr))
		}
		return "", fmt.Errorf("queue race %s: %w", raceID, err)
	}

	if size, err := uc.queueRepo.Size(ctx); err == nil {
		uc.metrics.SetRacesInQueue(size)
	}
	uc.logger.Info("race submitted",
		zap.String("race_id", raceID),
		zap.String("start", start),
		zap.String("end", end),
		zap.Int("max_depth", maxDepth),
	)
	return raceID, nil
}

func (uc *raceManagerUseCase) GetStatus(ctx context.Context, raceID string) (*entity.RaceStatus, error) {
	// Check for a finished race
	result, err := uc.resultRepo.FindByID(ctx, raceID)
	switch {
	case err == nil:
		status := &entity.RaceStatus{RaceID: raceID, CurrentStatus: entity.StatusCompleted, Result: result}
		if result.Outcome == entity.OutcomeFailed {
			status.CurrentStatus = entity.StatusFailed
			status.FailureReason = result.FailureReason
		}
		return status, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find result of race %s: %w", raceID, err)
	}

	// Check if queued or running
	current, err := uc.statusRepo.GetStatus(ctx, raceID)
	switch {
	case err == nil:
		return &entity.RaceStatus{RaceID: raceID, CurrentStatus: current}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get status of race %s: %w", raceID, err)
	}

	return &entity.RaceStatus{RaceID: raceID, CurrentStatus: entity.StatusNotFound}, nil
}

// validateRace returns start and end in canonical form, so equivalent
// spellings of a race share one id.
func validateRace(start, end string, maxDepth int) (string, string, error) {
	start, end, err := racer.CanonicalPages(start, end)
	if err != nil {
		return "", "", err
	}
	if maxDepth < 1 {
		return "", "", fmt.Errorf("%w: got %d", racer.ErrInvalidMaxDepth, maxDepth)
	}
	return start, end, nil
}
