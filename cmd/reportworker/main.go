package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/config"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/logging"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/reports"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/repository"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/worker"
)

// Standalone report worker. Runs the same sync-queue drain loop as the API
// process; deploy one or the other against the queue, not both.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "reportworker-main").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Database initialization failed")
		return err
	}
	defer db.Close()
	db.SetQueryTimeout(time.Duration(cfg.Database.QueryTimeoutSec) * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, falling back to database polling")
		}
		defer func() { _ = repository.Close(redisClient) }()
	}

	sink := reports.NewBookingReport(cfg.Reports.Path, &logger)
	retryPolicy := worker.DefaultRetryPolicy()
	reportWorker := worker.NewReportWorker(db, sink, redisClient, retryPolicy, &logger)

	reportWorker.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
