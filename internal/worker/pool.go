package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/user/wikiracer/internal/usecase"
	"go.uber.org/zap"
)

// Pool runs races from the queue on a fixed number of goroutines.
type Pool struct {
	runner       usecase.RaceRunner
	workers      int
	pollInterval time.Duration
	logger       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(runner usecase.RaceRunner, workers int, pollInterval time.Duration, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		runner:       runner,
		workers:      workers,
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("race workers started", zap.Int("workers", p.workers))
}

// Stop cancels running races (they are requeued) and waits for the workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("race workers stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger := p.logger.With(zap.Int("worker", id))

	for {
		processed, err := p.runner.ProcessNext(p.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("failed to process race", zap.Error(err))
		}
		if processed && err == nil {
			// Go straight for the next race.
			continue
		}

		select {
		case <-p.ctx.Done():
			return
		case <-time.After(p.pollInterval):
		}
	}
}
