package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comptaflow/backend/internal/application/ingest"
	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/comptaflow/backend/internal/infrastructure/ai"
	"github.com/comptaflow/backend/internal/infrastructure/cache"
	"github.com/comptaflow/backend/internal/infrastructure/config"
	"github.com/comptaflow/backend/internal/infrastructure/event"
	"github.com/comptaflow/backend/internal/infrastructure/logger"
	"github.com/comptaflow/backend/internal/infrastructure/persistence"
	"github.com/comptaflow/backend/internal/infrastructure/telemetry"
	"github.com/comptaflow/backend/internal/interfaces/http/handler"
	"github.com/comptaflow/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting journal ingestion service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Initialize database with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	journalRepo := persistence.NewGormJournalRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Initialize idempotency store: Redis when configured, in-memory otherwise
	var dedupe shared.IdempotencyStore
	if cfg.Redis.Enabled {
		dedupe, err = cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Info("Redis idempotency store connected")
	} else {
		dedupe = cache.NewInMemoryIdempotencyStore()
		log.Warn("Redis disabled, using in-memory idempotency store; redelivery detection does not survive restarts")
	}
	defer func() {
		if err := dedupe.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Processing policy from configuration
	policy := ingest.ProcessingPolicy{
		ProcessingDeadline: cfg.Ingest.ProcessingDeadline,
		NotifyGatedOut:     cfg.Ingest.NotifyGatedOut,
		DedupeTTL:          cfg.Ingest.DedupeTTL,
	}
	policy.AutoApply.Enabled = cfg.Ingest.AutoApplyEnabled
	policy.AutoApply.MinConfidence = cfg.Ingest.AutoApplyMinConfidence

	// Event bus and consumers
	bus := event.NewInMemoryBus(log)
	notifier := ingest.NewStatusNotifier(bus, cfg.Ingest.ProcessedBy, log)
	reconciler := ingest.NewReconciler(accountRepo, journalRepo, log)
	suggester := ai.NewClient(ai.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Timeout: cfg.AI.Timeout,
	}, log)

	journalHandler := ingest.NewJournalEventHandler(
		accountRepo, journalRepo, settingsRepo, notifier, dedupe, policy, log,
	)
	mobileHandler := ingest.NewMobileTransactionHandler(suggester, reconciler, policy, log)

	bus.Subscribe(journalHandler)
	bus.Subscribe(mobileHandler)

	if err := bus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	log.Info("Event bus started",
		zap.Strings("journal_topics", journalHandler.Topics()),
		zap.Strings("mobile_topics", mobileHandler.Topics()),
	)

	// HTTP interface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	ledgerHandler := handler.NewLedgerHandler(reconciler, journalRepo, log)
	settingsHandler := handler.NewSettingsHandler(settingsRepo, log)
	r := router.NewRouter(engine)
	r.Register(ledgerHandler, settingsHandler)
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(ctx); err != nil {
		log.Error("Event bus did not drain in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
