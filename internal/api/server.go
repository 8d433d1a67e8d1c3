// Package api wires the read API: middleware stack, CORS and routes.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/api/handler"
	"github.com/albapepper/scoracle-events/internal/cache"
	"github.com/albapepper/scoracle-events/internal/config"
	"github.com/albapepper/scoracle-events/internal/loader"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(ld *loader.Loader, appCache *cache.Cache, cfg *config.Config, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.API.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.API.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.API.RateLimitRequests, cfg.RateLimitWindow()))
	}

	// --- Handler dependencies ---
	h := handler.New(ld, appCache, cfg, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/storage", h.HealthCheckStorage)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI over the hand-written OpenAPI document; not exposed in production.
	if !cfg.IsProduction() {
		r.Get("/docs/doc.json", h.Docs)
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/matches", h.GetMatches)
		r.Get("/events", h.GetEvents)
		r.Get("/frames", h.GetFrames)
		r.Get("/merged", h.GetMerged)
	})

	return r
}
