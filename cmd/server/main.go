package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/finform/finform/internal/adapter/http"
	"github.com/finform/finform/internal/adapter/http/handler"
	"github.com/finform/finform/internal/adapter/http/middleware"
	"github.com/finform/finform/internal/adapter/remote"
	postgresRepo "github.com/finform/finform/internal/adapter/repository/postgres"
	redisRepo "github.com/finform/finform/internal/adapter/repository/redis"
	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/infrastructure/config"
	"github.com/finform/finform/internal/infrastructure/logger"
	"github.com/finform/finform/internal/infrastructure/metrics"
	"github.com/finform/finform/internal/infrastructure/postgres"
	"github.com/finform/finform/internal/infrastructure/redis"
	"github.com/finform/finform/internal/usecase"
)

const migrationsPath = "migrations"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger
	zerolog.DefaultContextLogger = &appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	dbCtx, dbCancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPool(dbCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	dbCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Apply migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Upstream ERP client
	remoteClient := remote.NewClient(remote.Config{
		BaseURL:       cfg.RemoteBaseURL,
		Timeout:       cfg.RemoteTimeout,
		BearerToken:   cfg.RemoteBearerToken,
		SessionCookie: cfg.RemoteSessionCookie,
	}, appLogger)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	documentRepo := postgresRepo.NewDocumentRepository(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	cache := redisRepo.NewCache(redisClient)
	guard := redisRepo.NewSubmitGuard(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	appMetrics := metrics.New()
	issuer := usecase.NewNumberIssuer(remoteClient, idGen, appLogger).
		WithPrefixes(numberPrefixes(cfg.NumberPrefixes)).
		WithMetrics(appMetrics)
	gateway := usecase.NewPersistenceGateway(remoteClient, documentRepo, txManager, issuer, retrier, appLogger).
		WithMetrics(appMetrics)
	catalogUC := usecase.NewCatalogUseCase(remoteClient, cache, cfg.CatalogTTL, appLogger)
	documentUC := usecase.NewDocumentUseCase(documentRepo, remoteClient, gateway, issuer, catalogUC, guard, idGen, appLogger).
		WithSubmitLockTTL(cfg.SubmitLockTTL)
	offlineUC := usecase.NewOfflineUseCase(documentRepo)

	// Initialize handlers
	documentHandler := handler.NewDocumentHandler(documentUC)
	catalogHandler := handler.NewCatalogHandler(catalogUC)
	offlineHandler := handler.NewOfflineHandler(offlineUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		DocumentHandler:  documentHandler,
		CatalogHandler:   catalogHandler,
		OfflineHandler:   offlineHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logger:           appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func numberPrefixes(raw map[string]string) map[domain.DocumentType]string {
	prefixes := make(map[domain.DocumentType]string, len(raw))
	for docType, prefix := range raw {
		prefixes[domain.DocumentType(docType)] = prefix
	}
	return prefixes
}
