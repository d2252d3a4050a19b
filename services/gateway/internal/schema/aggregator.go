// Package schema merges the OpenAPI documents of every backend into the
// gateway's public /openapi.json.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/utafrali/shopmesh/pkg/httpclient"
	"github.com/utafrali/shopmesh/pkg/httputil"
)

const securitySchemeName = "BearerAuth"

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_openapi_refresh_total",
		Help: "Schema refresh cycles by outcome (complete, partial).",
	}, []string{"outcome"})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_openapi_source_failures_total",
		Help: "Backends that contributed nothing to a refresh cycle.",
	}, []string{"service"})
)

// Source is one backend whose document is merged.
type Source struct {
	Name string // path prefix, e.g. "shop"
	Tag  string // display name, e.g. "Shop"
	URL  string // document URL
}

// SourcesFor builds sources from the service table: each backend serves its
// document at {url}/openapi.json.
func SourcesFor(services map[string]string, order []string) []Source {
	title := cases.Title(language.English)
	out := make([]Source, 0, len(order))
	for _, name := range order {
		base, ok := services[name]
		if !ok {
			continue
		}
		out = append(out, Source{
			Name: name,
			Tag:  title.String(name),
			URL:  strings.TrimRight(base, "/") + "/openapi.json",
		})
	}
	return out
}

// Config tunes fetching.
type Config struct {
	Title        string
	Version      string
	Interval     time.Duration
	FetchTimeout time.Duration
	Attempts     int
	RetryDelay   time.Duration
}

// Aggregator periodically rebuilds the merged document. Readers always see
// either nothing or a complete document.
type Aggregator struct {
	sources []Source
	cfg     Config
	client  httpclient.Doer
	logger  *slog.Logger
	current atomic.Pointer[[]byte]
}

// NewAggregator creates an Aggregator. Sources are merged in the given
// order, so later sources win component name collisions.
func NewAggregator(sources []Source, cfg Config, logger *slog.Logger) *Aggregator {
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.FetchTimeout
	hc.MaxRetries = 0
	return &Aggregator{sources: sources, cfg: cfg, client: httpclient.New(hc), logger: logger}
}

// Run refreshes immediately and then every interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context) {
	a.Refresh(ctx)

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Refresh(ctx)
		}
	}
}

// Refresh fetches every source concurrently, merges what arrived and swaps
// the result in. A failing source contributes no paths for this cycle.
func (a *Aggregator) Refresh(ctx context.Context) {
	docs := make([]map[string]any, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			doc, err := a.fetch(gctx, src)
			if err != nil {
				sourceFailures.WithLabelValues(src.Name).Inc()
				a.logger.WarnContext(ctx, "openapi fetch failed, skipping service this cycle",
					slog.String("service", src.Name),
					slog.String("url", src.URL),
					slog.String("error", err.Error()),
				)
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	merged := Merge(a.cfg.Title, a.cfg.Version, a.sources, docs)
	body, err := json.Marshal(merged)
	if err != nil {
		a.logger.ErrorContext(ctx, "encode merged openapi failed", slog.String("error", err.Error()))
		return
	}
	a.current.Store(&body)

	missing := 0
	for _, d := range docs {
		if d == nil {
			missing++
		}
	}
	outcome := "complete"
	if missing > 0 {
		outcome = "partial"
	}
	refreshTotal.WithLabelValues(outcome).Inc()
	a.logger.DebugContext(ctx, "openapi schema refreshed",
		slog.Int("services", len(a.sources)-missing),
		slog.Int("missing", missing),
	)
}

// fetch gets one document, retrying with a doubling delay.
func (a *Aggregator) fetch(ctx context.Context, src Source) (map[string]any, error) {
	attempts := max(a.cfg.Attempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := a.cfg.RetryDelay << (attempt - 1)
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
		doc, err := a.fetchOnce(ctx, src)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func (a *Aggregator) fetchOnce(ctx context.Context, src Source) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Handler serves the latest merged document, or 503 before the first
// refresh has completed.
func (a *Aggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := a.current.Load()
		if body == nil {
			httputil.WriteMessage(w, http.StatusServiceUnavailable, "OpenAPI schema not ready")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(*body)
	}
}

// Ready reports whether a merged document is available.
func (a *Aggregator) Ready(context.Context) error {
	if a.current.Load() == nil {
		return fmt.Errorf("openapi schema not built yet")
	}
	return nil
}
