package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/iho/gobid/internal/adapter/http"
	"github.com/iho/gobid/internal/adapter/http/handler"
	"github.com/iho/gobid/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gobid/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobid/internal/adapter/repository/redis"
	"github.com/iho/gobid/internal/infrastructure/auth"
	"github.com/iho/gobid/internal/infrastructure/config"
	"github.com/iho/gobid/internal/infrastructure/logger"
	"github.com/iho/gobid/internal/infrastructure/metrics"
	"github.com/iho/gobid/internal/infrastructure/postgres"
	"github.com/iho/gobid/internal/infrastructure/redis"
	"github.com/iho/gobid/internal/infrastructure/settlement"
	"github.com/iho/gobid/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Run database migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()

	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancelConnect()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(connectCtx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	auctionRepo := postgresRepo.NewAuctionRepository(pool)
	instructionRepo := postgresRepo.NewInstructionRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use case
	m := metrics.New()
	auctionUC := usecase.NewAuctionUseCase(
		txManager,
		auctionRepo,
		instructionRepo,
		idGen,
		cache,
		m,
		log,
	).WithRetrier(retrier)

	// Initialize handlers
	auctionHandler := handler.NewAuctionHandler(auctionUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuctionHandler:   auctionHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		JWTManager:       jwtManagerFromConfig(cfg),
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logger:           log,
	})

	// Start settlement worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	worker := settlement.NewWorker(settlement.Config{
		InstructionRepo: instructionRepo,
		Executor:        settlement.NewLogExecutor(log),
		Logger:          log,
		BatchSize:       cfg.SettlementBatchSize,
		Interval:        cfg.SettlementInterval,
	})
	go func() {
		if err := worker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("settlement worker stopped")
		}
	}()

	// Create servers
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.MetricsPort),
		Handler: promhttp.Handler(),
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// jwtManagerFromConfig returns a token verifier when authentication is
// enabled, nil otherwise. A nil manager makes the router skip the auth
// middleware entirely.
func jwtManagerFromConfig(cfg *config.Config) *auth.JWTManager {
	if !cfg.AuthEnabled || cfg.JWTSecret == "" {
		return nil
	}

	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
}
