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
	"github.com/utafrali/shopmesh/services/shop/internal/config"
	"github.com/utafrali/shopmesh/services/shop/internal/service"
)

const serviceName = "shop"

// NewRouter creates a chi router with all shop service routes registered.
func NewRouter(
	shopService *service.ShopService,
	orderItemService *service.OrderItemService,
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

	shopHandler := NewShopHandler(shopService, logger)
	orderItemHandler := NewOrderItemHandler(orderItemService, logger)

	r.Route("/api/shops", func(r chi.Router) {
		r.Get("/", shopHandler.ListShops)
		r.With(middleware.RequireUser).Post("/", shopHandler.CreateShop)

		r.Route("/{shop}", func(r chi.Router) {
			r.Get("/", shopHandler.GetShop)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Patch("/", shopHandler.UpdateShop)
				r.Delete("/", shopHandler.DeleteShop)
				r.Post("/approve", shopHandler.ApproveShop)

				r.Get("/order-items", orderItemHandler.List)
				r.Get("/order-items/{item_id}", orderItemHandler.Get)
				r.Patch("/order-items/{item_id}/status", orderItemHandler.UpdateStatus)
			})
		})
	})

	r.Get("/api/user/{user_id}", shopHandler.GetUserShop)

	r.Get("/openapi.json", openapi.Handler(r, openapi.Info{Title: "Shop Service", Version: "1.0.0"}))

	return r
}
