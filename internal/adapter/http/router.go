package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finform/finform/internal/adapter/http/handler"
	"github.com/finform/finform/internal/adapter/http/middleware"
	"github.com/finform/finform/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	DocumentHandler  *handler.DocumentHandler
	CatalogHandler   *handler.CatalogHandler
	OfflineHandler   *handler.OfflineHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
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
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Documents
		r.Route("/documents/{type}", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Create)
			r.Get("/", cfg.DocumentHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.DocumentHandler.Get)
				r.Put("/", cfg.DocumentHandler.Update)
				r.Delete("/", cfg.DocumentHandler.Delete)

				r.Post("/lines", cfg.DocumentHandler.AddLine)
				r.Put("/lines/{lineID}", cfg.DocumentHandler.EditLine)
				r.Delete("/lines/{lineID}", cfg.DocumentHandler.RemoveLine)

				r.Post("/submit", cfg.DocumentHandler.Submit)
				r.Post("/pay", cfg.DocumentHandler.Pay)
				r.Post("/cancel", cfg.DocumentHandler.Cancel)
				r.Post("/post", cfg.DocumentHandler.Post)
				r.Post("/void", cfg.DocumentHandler.Void)
			})
		})

		// Catalog master data
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", cfg.CatalogHandler.Items)
			r.Get("/taxes", cfg.CatalogHandler.Taxes)
			r.Post("/refresh", cfg.CatalogHandler.Refresh)
		})

		// Offline queue
		r.Route("/offline", func(r chi.Router) {
			r.Get("/report", cfg.OfflineHandler.Report)
			r.Get("/{type}", cfg.OfflineHandler.Pending)
		})
	})

	return r
}
