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
	"github.com/utafrali/shopmesh/services/search/internal/config"
	"github.com/utafrali/shopmesh/services/search/internal/service"
)

const serviceName = "search"

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	searchService *service.SearchService,
	healthHandler *health.Handler,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Compress(5))
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

	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/search", func(r chi.Router) {
		r.Use(middleware.CacheControl(30 * time.Second))
		r.Get("/", searchHandler.Search)
		r.Get("/shops/{shop_id}/products", searchHandler.ProductsByShop)
		r.Get("/products/{product_id}/variations", searchHandler.VariationsByProduct)
	})

	r.Get("/openapi.json", openapi.Handler(r, openapi.Info{Title: "Search Service", Version: "1.0.0"}))

	return r
}
