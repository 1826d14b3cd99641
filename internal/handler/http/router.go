package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nefol/discovery/internal/service"
	"github.com/nefol/discovery/pkg/health"
	"github.com/nefol/discovery/pkg/middleware"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	// AllowedOrigins overrides the CORS origins; empty allows any origin.
	AllowedOrigins []string
	// CacheMaxAge is the Cache-Control max-age of the facet and popular
	// endpoints. Zero disables the header.
	CacheMaxAge time.Duration
	// RateLimit bounds API requests per shopper. A zero RPS disables it.
	RateLimit middleware.RateLimitConfig
}

// NewRouter creates a chi router with all discovery routes registered.
func NewRouter(
	discoveryService *service.DiscoveryService,
	healthHandler *health.Handler,
	opts RouterOptions,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	if len(opts.AllowedOrigins) > 0 {
		cors.AllowedOrigins = opts.AllowedOrigins
	}

	// Global middleware
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing)
	r.Use(middleware.Shopper)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	h := NewDiscoveryHandler(discoveryService, logger)

	r.Route("/api/v1/discovery", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimit, logger))

		r.Get("/search", h.Search)
		r.Get("/suggest", h.Suggest)

		r.Group(func(r chi.Router) {
			if opts.CacheMaxAge > 0 {
				r.Use(middleware.CacheControl(opts.CacheMaxAge))
			}
			r.Get("/facets", h.Facets)
			r.Get("/popular", h.Popular)
		})

		r.Get("/recent", h.Recent)
		r.Delete("/recent", h.ClearRecent)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/recent", h.PushRecent)
			r.Post("/index", h.IndexProduct)
			r.Post("/bulk", h.BulkIndex)
			r.Post("/reindex", h.Reindex)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	return r
}
