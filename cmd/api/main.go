package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/api"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/auth"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/config"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/events"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/logging"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/metrics"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/reports"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/repository"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/service"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, categories, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Database initialization failed")
		return err
	}
	defer db.Close()
	db.SetQueryTimeout(time.Duration(cfg.Database.QueryTimeoutSec) * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessions := initSessionStore(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	// Booking changes flow through the sync queue into the Excel report.
	reportSink := reports.NewBookingReport(cfg.Reports.Path, &logger)
	retryPolicy := worker.DefaultRetryPolicy()
	reportWorker := worker.NewReportWorker(db, reportSink, redisClient, retryPolicy, &logger)
	go reportWorker.Start(ctx)

	eventBus := events.NewEventBus()
	subscribeAuditEvents(eventBus, &logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	userService := service.NewUserService(db, sessions, tokens, hasher, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, &logger)
	bookingService := service.NewBookingService(db, eventBus, reportWorker, &logger)
	vendorService := service.NewVendorService(db, eventBus, &logger)
	reviewService := service.NewReviewService(db, vendorService, &logger)
	statsService := service.NewStatsService(db, &logger)

	if err := bootstrapAdmin(ctx, db, hasher, cfg.Admin, &logger); err != nil {
		return err
	}

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	apiServer := api.NewHTTPServer(cfg.HTTP, cfg.RateLimit, api.Deps{
		Users:      userService,
		Bookings:   bookingService,
		Vendors:    vendorService,
		Reviews:    reviewService,
		Stats:      statsService,
		Categories: categories,
		Exporter:   reportSink,
		ExportDir:  cfg.Reports.Path,
	}, &logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, []models.ServiceCategory, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	categoriesPath := cfg.Categories.Path
	if categoriesPath == "" {
		categoriesPath = "configs/categories.yaml"
	}
	categories, err := loadCategories(categoriesPath)
	if err != nil {
		logger.Error().Err(err).Str("path", categoriesPath).Msg("Failed to load service categories")
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, categories, logger, closer, nil
}

func loadCategories(path string) ([]models.ServiceCategory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed struct {
		Categories []models.ServiceCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	if len(seed.Categories) == 0 {
		return nil, errors.New("categories file is empty")
	}
	return seed.Categories, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Reports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create reports directory")
		return err
	}
	return nil
}

// initSessionStore wires a redis-backed session store with an in-memory
// fallback. Without a redis address only the in-memory store is used.
func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverSessionRepository) {
	ttl := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	fallback := repository.NewMemorySessionRepository(ttl)
	return redisClient, repository.NewFailoverSessionRepository(primary, fallback, logger)
}

// bootstrapAdmin creates the configured administrator account when it does
// not exist yet. Registration never grants the admin role, so the first
// admin has to come from configuration.
func bootstrapAdmin(ctx context.Context, db *database.DB, hasher *auth.Hasher, cfg config.AdminConfig, logger *zerolog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Info().Msg("Admin bootstrap skipped, no admin configured")
		return nil
	}

	_, err := db.GetUserByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("admin bootstrap lookup: %w", err)
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return fmt.Errorf("admin bootstrap hash: %w", err)
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Email:        cfg.Email,
		FullName:     cfg.FullName,
		Phone:        cfg.Phone,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("admin bootstrap create: %w", err)
	}

	logger.Info().Str("email", cfg.Email).Msg("Admin account bootstrapped")
	return nil
}

func serveMetrics(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}

// subscribeAuditEvents logs every domain event as a structured audit record.
func subscribeAuditEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bookingHandler := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("audit: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Str("status", payload.Status).
			Str("changed_by", payload.ChangedBy).
			Str("changed_by_role", payload.ChangedByRole).
			Msg("Booking event")
		return nil
	}

	vendorHandler := func(ev *events.Event) error {
		var payload events.VendorEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("audit: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("vendor_profile_id", payload.VendorProfileID).
			Str("approval_status", payload.ApprovalStatus).
			Str("decided_by", payload.DecidedBy).
			Msg("Vendor decision event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingInProgress,
		events.EventBookingCompleted,
		events.EventBookingCancelled,
	} {
		bus.Subscribe(eventType, bookingHandler)
	}
	bus.Subscribe(events.EventVendorApproved, vendorHandler)
	bus.Subscribe(events.EventVendorRejected, vendorHandler)
}
