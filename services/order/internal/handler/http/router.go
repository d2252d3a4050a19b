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
	"github.com/utafrali/shopmesh/services/order/internal/config"
	"github.com/utafrali/shopmesh/services/order/internal/service"
)

const serviceName = "order"

// NewRouter creates a chi router with all order service routes registered.
func NewRouter(
	orderService *service.OrderService,
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

	orderHandler := NewOrderHandler(orderService, logger)

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/", orderHandler.ListOrders)
		r.Post("/", orderHandler.Checkout)
		r.Get("/{order_id}", orderHandler.GetOrder)
		r.Patch("/items/{item_id}/status", orderHandler.UpdateItemStatus)
	})

	r.Get("/openapi.json", openapi.Handler(r, openapi.Info{Title: "Order Service", Version: "1.0.0"}))

	return r
}
