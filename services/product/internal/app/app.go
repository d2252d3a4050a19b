// Package app wires and runs the product service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/shopmesh/pkg/clients"
	"github.com/utafrali/shopmesh/pkg/database"
	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/health"
	"github.com/utafrali/shopmesh/pkg/tracing"
	"github.com/utafrali/shopmesh/services/product/internal/config"
	"github.com/utafrali/shopmesh/services/product/internal/event"
	handler "github.com/utafrali/shopmesh/services/product/internal/handler/http"
	"github.com/utafrali/shopmesh/services/product/internal/repository/postgres"
	"github.com/utafrali/shopmesh/services/product/internal/service"
	"github.com/utafrali/shopmesh/services/product/migrations"
)

const serviceVersion = "1.0.0"

// App wires together all dependencies and runs the product service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	bus            eventbus.Bus
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "product",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.DBName),
	)
	if err := database.RegisterPoolMetrics(pool, "product"); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	bus, err := eventbus.Open(cfg.EventBus, "product", logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open event bus: %w", err)
	}

	shopClient := clients.NewShopClient(cfg.ShopServiceURL, clients.NewDoer("shop-service", clients.Config{
		BaseURL:    cfg.ShopServiceURL,
		Timeout:    cfg.ShopServiceTimeout,
		MaxRetries: cfg.ShopServiceRetries,
	}, logger))

	productService := service.NewProductService(
		postgres.NewProductRepository(pool),
		postgres.NewVariationRepository(pool),
		shopClient,
		event.NewProducer(bus, logger),
		logger,
	)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("event_bus", bus.Ping)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(productService, healthHandler, cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		bus:            bus,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
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
		return errors.Join(err, a.Shutdown())
	}
	return a.Shutdown()
}

// Shutdown drains HTTP, then closes the bus and the pool and flushes spans.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down product service")

	var errs []error
	httpCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event bus: %w", err))
	}
	a.pool.Close()

	traceCtx, traceCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer traceCancel()
	if err := a.tracerShutdown(traceCtx); err != nil {
		errs = append(errs, fmt.Errorf("flush traces: %w", err))
	}

	a.logger.Info("product service shutdown complete")
	return errors.Join(errs...)
}
