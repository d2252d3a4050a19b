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
	"github.com/utafrali/shopmesh/services/product/internal/config"
	"github.com/utafrali/shopmesh/services/product/internal/service"
)

const serviceName = "product"

// NewRouter creates a chi router with all product service routes registered.
func NewRouter(
	productService *service.ProductService,
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

	productHandler := NewProductHandler(productService, logger)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.With(middleware.RequireUser).Post("/", productHandler.CreateProduct)

		r.Route("/variations/{variation_id}", func(r chi.Router) {
			r.Get("/", productHandler.GetVariation)
			r.With(middleware.RequireUser).Patch("/", productHandler.UpdateVariation)
			r.With(middleware.RequireUser).Delete("/", productHandler.DeleteVariation)
		})

		r.Route("/{product_id}", func(r chi.Router) {
			r.Get("/", productHandler.GetProduct)
			r.Get("/variations", productHandler.ListVariations)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Patch("/", productHandler.UpdateProduct)
				r.Delete("/", productHandler.DeleteProduct)
				r.Post("/variations", productHandler.CreateVariation)
			})
		})
	})

	r.Get("/openapi.json", openapi.Handler(r, openapi.Info{Title: "Product Service", Version: "1.0.0"}))

	return r
}
