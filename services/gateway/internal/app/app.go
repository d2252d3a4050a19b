// Package app wires and runs the API gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/shopmesh/pkg/clients"
	"github.com/utafrali/shopmesh/pkg/database"
	"github.com/utafrali/shopmesh/pkg/health"
	"github.com/utafrali/shopmesh/pkg/tracing"
	"github.com/utafrali/shopmesh/services/gateway/internal/auth"
	"github.com/utafrali/shopmesh/services/gateway/internal/config"
	"github.com/utafrali/shopmesh/services/gateway/internal/handler"
	gwmiddleware "github.com/utafrali/shopmesh/services/gateway/internal/middleware"
	"github.com/utafrali/shopmesh/services/gateway/internal/proxy"
	"github.com/utafrali/shopmesh/services/gateway/internal/schema"
)

const serviceVersion = "1.0.0"

// schemaOrder fixes the merge order of backend documents.
var schemaOrder = []string{"shop", "cart", "wishlist", "order", "analytic", "user", "product", "search"}

// App holds the gateway's long-lived components.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	redis          *redis.Client
	schema         *schema.Aggregator
	limiter        *gwmiddleware.Limiter
	tracerShutdown func(context.Context) error
}

// NewApp connects to Redis (when it backs the blacklist) and builds the
// router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "gateway",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}
	healthHandler := health.NewHandler()

	var blacklist auth.Blacklist
	switch cfg.BlacklistBackend {
	case config.BlacklistMemory:
		logger.Warn("token blacklist kept in memory; revocations are not shared between replicas")
		blacklist = auth.NewMemoryBlacklist()
	default:
		rdb, err := database.NewRedisClient(ctx, cfg.RedisConfig)
		if err != nil {
			_ = tracerShutdown(context.Background())
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = rdb
		blacklist = auth.NewRedisBlacklist(rdb)
		healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	authenticator := auth.NewAuthenticator(tokens, blacklist, auth.NewPublicPaths(auth.DefaultPublicPaths), logger)

	users := clients.NewUserClient(cfg.UserServiceURL, clients.NewDoer("user-service", clients.Config{
		Timeout:    cfg.ProxyTimeout,
		MaxRetries: 0,
	}, logger))

	forwarder, err := proxy.NewForwarder(cfg.Services(), cfg.ProxyTimeout, logger)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.schema = schema.NewAggregator(schema.SourcesFor(cfg.Services(), schemaOrder), schema.Config{
		Title:        "Shopmesh API",
		Version:      serviceVersion,
		Interval:     cfg.OpenAPIRefreshInterval,
		FetchTimeout: cfg.OpenAPIFetchTimeout,
		Attempts:     cfg.OpenAPIFetchRetries,
		RetryDelay:   cfg.OpenAPIRetryDelay,
	}, logger)
	healthHandler.RegisterNonCritical("openapi", a.schema.Ready)

	a.limiter = gwmiddleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	router := handler.NewRouter(cfg, handler.Deps{
		Health:        healthHandler,
		Authenticator: authenticator,
		Auth:          auth.NewHandler(authenticator, users, logger),
		Limiter:       a.limiter,
		Forwarder:     forwarder,
		Schema:        a.schema.Handler(),
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.ProxyTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// Run serves HTTP and refreshes the merged schema until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	go a.schema.Run(bgCtx)
	go a.limiter.Run(bgCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		stopBackground()
		return errors.Join(err, a.Shutdown())
	}
	stopBackground()
	return a.Shutdown()
}

// Shutdown drains HTTP, then releases Redis and flushes spans.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down gateway")

	var errs []error
	httpCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	errs = append(errs, a.closeResources())

	a.logger.Info("gateway shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	return errors.Join(errs...)
}
