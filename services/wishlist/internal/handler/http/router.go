package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/utafrali/shopmesh/pkg/health"
	"github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/pkg/openapi"
	"github.com/utafrali/shopmesh/services/wishlist/internal/config"
	"github.com/utafrali/shopmesh/services/wishlist/internal/service"
)

const serviceName = "wishlist"

// NewRouter creates a chi router with all wishlist service routes registered.
func NewRouter(
	wishlistService *service.WishlistService,
	healthHandler *health.Handler,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Identity)
	r.Use(middleware.RequestLogger(logger))

	healthHandler.Mount(r)
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler(cfg.MetricsAllowedCIDRs, logger))
	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.MetricsAllowedCIDRs, logger)
	}

	wishlistHandler := NewWishlistHandler(wishlistService, logger)

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", wishlistHandler.List)
		r.Post("/", wishlistHandler.Add)
		r.Get("/{variation_id}", wishlistHandler.Exists)
		r.Delete("/{variation_id}", wishlistHandler.Remove)
	})

	r.Get("/openapi.json", openapi.Handler(r, openapi.Info{Title: "Wishlist Service", Version: "1.0.0"}))

	return r
}
