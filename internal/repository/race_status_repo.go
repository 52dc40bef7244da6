package repository

import (
	"context"
	"time"
)

// RaceStatusRepository tracks races that are queued or running.
type RaceStatusRepository interface {
	// SetStatus records the transient status of a race with an expiry.
	SetStatus(ctx context.Context, raceID, status string, ttl time.Duration) error
	// SetStatusIfAbsent records status only when the race has none. It reports
	// whether the status was written.
	SetStatusIfAbsent(ctx context.Context, raceID, status string, ttl time.Duration) (bool, error)
	// GetStatus returns the stored status, or ErrNotFound.
	GetStatus(ctx context.Context, raceID string) (string, error)
	// RemoveStatus clears the transient status once a race has a durable result.
	RemoveStatus(ctx context.Context, raceID string) error
}
