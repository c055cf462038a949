package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gobid/internal/adapter/http/handler"
	"github.com/iho/gobid/internal/adapter/http/middleware"
	"github.com/iho/gobid/internal/infrastructure/auth"
	"github.com/iho/gobid/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuctionHandler   *handler.AuctionHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	JWTManager       *auth.JWTManager
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.Auth(cfg.JWTManager))
		}

		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/auctions", func(r chi.Router) {
			r.Post("/", cfg.AuctionHandler.Create)
			r.Get("/", cfg.AuctionHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AuctionHandler.Get)
				r.Post("/bids", cfg.AuctionHandler.Bid)
				r.Post("/close", cfg.AuctionHandler.Close)
				r.Post("/retract", cfg.AuctionHandler.Retract)
				r.Get("/highest-bid", cfg.AuctionHandler.HighestBid)
				r.Get("/bids/{addr}", cfg.AuctionHandler.TotalBid)
				r.Get("/instructions", cfg.AuctionHandler.Instructions)
			})
		})
	})

	return r
}
