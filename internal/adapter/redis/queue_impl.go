package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/repository"
)

const raceQueueKey = "wikiracer:queue"

// QueueRepoImpl provides a concrete implementation for the RaceQueueRepository interface using Redis Lists.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a race to the left side of the Redis list (acting as a queue).
func (r *QueueRepoImpl) Push(ctx context.Context, race *entity.Race) error {
	payload, err := json.Marshal(race)
	if err != nil {
		return fmt.Errorf("encode race %s: %w", race.ID, err)
	}
	return r.client.LPush(ctx, raceQueueKey, payload).Err()
}

// Pop removes and returns a race from the right side of the Redis list.
// An empty queue yields repository.ErrNotFound.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*entity.Race, error) {
	payload, err := r.client.RPop(ctx, raceQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var race entity.Race
	if err := json.Unmarshal(payload, &race); err != nil {
		return nil, fmt.Errorf("decode queued race: %w", err)
	}
	return &race, nil
}

// Size returns the current number of races in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, raceQueueKey).Result()
}
