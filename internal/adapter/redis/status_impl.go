package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/wikiracer/internal/repository"
)

const raceStatusPrefix = "wikiracer:status:"

// StatusRepoImpl provides a concrete implementation for the RaceStatusRepository interface using Redis.
type StatusRepoImpl struct {
	client *redis.Client
}

// NewStatusRepo creates a new instance of StatusRepoImpl.
func NewStatusRepo(client *redis.Client) *StatusRepoImpl {
	return &StatusRepoImpl{client: client}
}

func (r *StatusRepoImpl) generateKey(raceID string) string {
	return raceStatusPrefix + raceID
}

// SetStatus stores the status with an expiry so abandoned races age out.
func (r *StatusRepoImpl) SetStatus(ctx context.Context, raceID, status string, ttl time.Duration) error {
	// SET with an expiration is atomic, like SETEX.
	return r.client.Set(ctx, r.generateKey(raceID), status, ttl).Err()
}

// SetStatusIfAbsent claims the race with SET NX, so concurrent submissions of
// the same race cannot both succeed.
func (r *StatusRepoImpl) SetStatusIfAbsent(ctx context.Context, raceID, status string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.generateKey(raceID), status, ttl).Result()
}

// GetStatus returns the stored status or repository.ErrNotFound.
func (r *StatusRepoImpl) GetStatus(ctx context.Context, raceID string) (string, error) {
	status, err := r.client.Get(ctx, r.generateKey(raceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	return status, err
}

// RemoveStatus deletes the transient status of a race.
func (r *StatusRepoImpl) RemoveStatus(ctx context.Context, raceID string) error {
	return r.client.Del(ctx, r.generateKey(raceID)).Err()
}
