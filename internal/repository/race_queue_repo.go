package repository

import (
	"context"

	"github.com/user/wikiracer/internal/entity"
)

// RaceQueueRepository defines the interface for a FIFO queue of races waiting to run.
type RaceQueueRepository interface {
	// Push adds a race to the end of the queue.
	Push(ctx context.Context, race *entity.Race) error
	// Pop removes and returns the race at the front of the queue.
	// It returns ErrNotFound when the queue is empty.
	Pop(ctx context.Context) (*entity.Race, error)
	// Size returns the current number of queued races.
	Size(ctx context.Context) (int64, error)
}
