package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/repository"
)

type memQueue struct {
	mu      sync.Mutex
	items   []*entity.Race
	pushErr error
	popErr  error
}

func (q *memQueue) Push(_ context.Context, race *entity.Race) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pushErr != nil {
		return q.pushErr
	}
	q.items = append(q.items, race)
	return nil
}

func (q *memQueue) Pop(_ context.Context) (*entity.Race, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.popErr != nil {
		return nil, q.popErr
	}
	if len(q.items) == 0 {
		return nil, repository.ErrNotFound
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r, nil
}

func (q *memQueue) Size(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type memStatus struct {
	mu      sync.Mutex
	status  map[string]string
	history []string
}

func newMemStatus() *memStatus {
	return &memStatus{status: make(map[string]string)}
}

func (s *memStatus) SetStatus(_ context.Context, id, status string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = status
	s.history = append(s.history, status)
	return nil
}

func (s *memStatus) SetStatusIfAbsent(_ context.Context, id, status string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.status[id]; ok {
		return false, nil
	}
	s.status[id] = status
	s.history = append(s.history, status)
	return true, nil
}

func (s *memStatus) GetStatus(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return st, nil
}

func (s *memStatus) RemoveStatus(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.status, id)
	return nil
}

type memResults struct {
	mu      sync.Mutex
	results map[string]*entity.RaceResult
	findErr error
	saveErr error
}

func newMemResults() *memResults {
	return &memResults{results: make(map[string]*entity.RaceResult)}
}

func (r *memResults) Save(ctx context.Context, res *entity.RaceResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.results[res.RaceID] = res
	return nil
}

func (r *memResults) FindByID(_ context.Context, id string) (*entity.RaceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	res, ok := r.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

type finderFunc func(ctx context.Context, start, end string, maxDepth int) (*entity.RaceResult, error)

func (f finderFunc) FindPath(ctx context.Context, start, end string, maxDepth int) (*entity.RaceResult, error) {
	return f(ctx, start, end, maxDepth)
}
