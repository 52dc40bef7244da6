package repository

import (
	"context"

	"github.com/user/wikiracer/internal/entity"
)

// RaceResultRepository defines the interface for storing finished races.
type RaceResultRepository interface {
	// Save stores the result of a race. Saving the same race twice replaces it.
	Save(ctx context.Context, result *entity.RaceResult) error
	// FindByID retrieves a finished race, or ErrNotFound.
	FindByID(ctx context.Context, raceID string) (*entity.RaceResult, error)
}
