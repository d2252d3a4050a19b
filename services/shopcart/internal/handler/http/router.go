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
	"github.com/utafrali/shopmesh/services/shopcart/internal/config"
	"github.com/utafrali/shopmesh/services/shopcart/internal/service"
)

const serviceName = "shopcart"

// NewRouter creates a chi router with all shopcart service routes registered.
func NewRouter(
	cartService *service.CartService,
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

	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/shopcart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireUser)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)

		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{variation_id}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{variation_id}", cartHandler.RemoveItem)
	})

	r.Get("/openapi.json", openapi.Handler(r, openapi.Info{Title: "Shopcart Service", Version: "1.0.0"}))

	return r
}
