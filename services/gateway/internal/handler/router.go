// Package handler assembles the gateway's HTTP surface.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopmesh/pkg/health"
	pkgmiddleware "github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/services/gateway/internal/auth"
	"github.com/utafrali/shopmesh/services/gateway/internal/config"
	gwmiddleware "github.com/utafrali/shopmesh/services/gateway/internal/middleware"
)

// Deps are the components the router dispatches to.
type Deps struct {
	Health        *health.Handler
	Authenticator *auth.Authenticator
	Auth          *auth.Handler
	Limiter       *gwmiddleware.Limiter
	Forwarder     http.Handler
	Schema        http.Handler
}

// NewRouter builds the gateway router. Login and logout are answered by the
// gateway itself; every other /{service}/... request is authenticated and
// forwarded.
func NewRouter(cfg *config.Config, d Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(pkgmiddleware.CORS(pkgmiddleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: cfg.CORSAllowedMethods,
		AllowedHeaders: cfg.CORSAllowedHeaders,
		ExposedHeaders: []string{pkgmiddleware.CorrelationIDHeader},
		MaxAge:         cfg.CORSMaxAge,
		Environment:    cfg.Environment,
	}))
	r.Use(d.Limiter.Middleware)
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics("gateway"))
	r.Use(pkgmiddleware.Tracing("gateway"))
	r.Use(pkgmiddleware.RequestLogger(logger))

	d.Health.Mount(r)
	r.Method(http.MethodGet, "/metrics", pkgmiddleware.MetricsHandler(cfg.MetricsAllowedCIDRs, logger))
	if cfg.PprofEnabled {
		pkgmiddleware.RegisterPprof(r, cfg.MetricsAllowedCIDRs, logger)
	}

	r.Method(http.MethodGet, "/openapi.json", d.Schema)

	for _, p := range []string{"/user/api/user/login", "/user/api/user/login/"} {
		r.Post(p, d.Auth.Login)
	}
	for _, p := range []string{"/user/api/user/logout", "/user/api/user/logout/"} {
		r.Post(p, d.Auth.Logout)
	}

	r.Group(func(r chi.Router) {
		r.Use(d.Authenticator.Middleware)
		r.Handle("/{service}", d.Forwarder)
		r.Handle("/{service}/*", d.Forwarder)
	})

	return r
}
