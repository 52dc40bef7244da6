package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/user/wikiracer/internal/adapter/postgres"
	redis_adapter "github.com/user/wikiracer/internal/adapter/redis"
	"github.com/user/wikiracer/internal/app"
	"github.com/user/wikiracer/internal/delivery/http/handler"
	"github.com/user/wikiracer/internal/delivery/http/router"
	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/racer"
	"github.com/user/wikiracer/internal/usecase"
	"github.com/user/wikiracer/internal/worker"
	"github.com/user/wikiracer/pkg/config"
	"github.com/user/wikiracer/pkg/logger"
	"github.com/user/wikiracer/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("logger initialized", zap.String("level", cfg.LogLevel))

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	// --- Database Connections ---
	ctx := context.Background()

	// PostgreSQL
	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("PostgreSQL connection pool established")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("Redis connection established")

	// --- Repositories ---
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	statusRepo := redis_adapter.NewStatusRepo(rdb)
	resultRepo := postgres.NewRaceResultRepo(dbpool)

	// --- Racer ---
	pathFinder, closeFetcher, err := app.NewRacer(cfg, racer.Hooks{
		OnLevelComplete: func(s entity.LevelStats) {
			log.Debug("level stats",
				zap.Int("depth", s.Depth),
				zap.Int("queued", s.Queued),
				zap.Int("discovered", s.Discovered),
				zap.Int("failed", s.Failed),
				zap.Duration("elapsed", s.Elapsed),
			)
		},
	}, log, m)
	if err != nil {
		return err
	}
	defer closeFetcher()
	log.Info("racer initialized",
		zap.String("fetcher", cfg.FetcherMode),
		zap.Int("fetch_workers", cfg.FetchWorkers),
		zap.Int("max_depth", cfg.MaxDepth),
	)

	// --- Use Cases ---
	raceManager := usecase.NewRaceManager(queueRepo, statusRepo, resultRepo, cfg.StatusTTL(), cfg.MaxDepth, m, log.Named("manager"))
	raceRunner := usecase.NewRaceRunner(pathFinder, queueRepo, statusRepo, resultRepo, cfg.StatusTTL(), m, log.Named("runner"))

	// --- Workers ---
	pool := worker.NewPool(raceRunner, cfg.RaceWorkers, cfg.QueuePollInterval(), log.Named("worker"))
	pool.Start()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(raceManager, map[string]handler.HealthCheck{
		"postgres": resultRepo.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log.Named("http"))
	httpRouter := router.New(apiHandler, m, prometheus.DefaultGatherer, log.Named("http"))

	server := router.NewServer(":"+cfg.ServerPort, httpRouter)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		pool.Stop()
		return fmt.Errorf("listen on port %s: %w", cfg.ServerPort, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	// Running races are cancelled and put back on the queue.
	pool.Stop()

	log.Info("server exiting")
	return nil
}
