// Package app wires and runs the search service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/health"
	"github.com/utafrali/shopmesh/pkg/tracing"
	"github.com/utafrali/shopmesh/services/search/internal/config"
	"github.com/utafrali/shopmesh/services/search/internal/engine"
	esengine "github.com/utafrali/shopmesh/services/search/internal/engine/elasticsearch"
	"github.com/utafrali/shopmesh/services/search/internal/engine/memory"
	"github.com/utafrali/shopmesh/services/search/internal/event"
	handler "github.com/utafrali/shopmesh/services/search/internal/handler/http"
	"github.com/utafrali/shopmesh/services/search/internal/service"
)

const serviceVersion = "1.0.0"

// App wires together all dependencies and runs the search service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	engine         engine.Engine
	bus            eventbus.Bus
	consumer       *event.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "search",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	var eng engine.Engine
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		esEng, err := esengine.New(esengine.Config{
			Addresses: cfg.ElasticsearchURL,
			Username:  cfg.ElasticsearchUsername,
			Password:  cfg.ElasticsearchPassword,
			Refresh:   cfg.ElasticsearchRefresh,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch search engine initialized", slog.Any("addresses", cfg.ElasticsearchURL))
	default:
		eng = memory.New()
		logger.Info("in-memory search engine initialized")
	}

	bus, err := eventbus.Open(cfg.EventBus, "search", logger)
	if err != nil {
		return nil, fmt.Errorf("open event bus: %w", err)
	}

	searchService := service.NewSearchService(eng, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("search_engine", eng.Ping)
	healthHandler.RegisterNonCritical("event_bus", bus.Ping)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(searchService, healthHandler, cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		engine:         eng,
		bus:            bus,
		consumer:       event.NewConsumer(searchService, logger),
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// ensureIndices retries index creation until the cluster accepts it or the
// setup budget is spent.
func (a *App) ensureIndices(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.IndexSetupTimeout)
	defer cancel()

	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := a.engine.EnsureIndices(ctx)
		if err == nil {
			return nil
		}
		a.logger.Warn("index setup failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("ensure indices: %w", err)
		case <-time.After(delay):
		}
		delay = min(delay*2, 8*time.Second)
	}
}

// Run creates the indices, then starts the consumers and the HTTP server,
// blocking until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.ensureIndices(ctx); err != nil {
		return errors.Join(err, a.closeResources())
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	errCh := make(chan error, 2)
	go func() {
		if err := a.consumer.Run(bgCtx, a.bus); err != nil {
			errCh <- fmt.Errorf("event consumer: %w", err)
		}
	}()
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

// Shutdown drains HTTP, then closes the bus and flushes spans.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down search service")

	var errs []error
	httpCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	errs = append(errs, a.closeResources())

	a.logger.Info("search service shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	if err := a.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event bus: %w", err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.tracerShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush traces: %w", err))
	}
	return errors.Join(errs...)
}
