// Package proxy forwards gateway requests to backend services.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopmesh/pkg/httpclient"
	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/logger"
	"github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/pkg/tracing"
)

// Request headers never forwarded. X-User-Id is rebuilt from the verified
// principal so a client can never supply it.
var strippedRequestHeaders = []string{
	"Host", "Content-Length", "Accept-Encoding", "Cookie", "Connection", "Referer",
	middleware.UserIDHeader,
}

// Response headers never copied back to the client.
var strippedResponseHeaders = map[string]bool{
	"Content-Encoding":  true,
	"Transfer-Encoding": true,
	"Connection":        true,
}

// Forwarder proxies /{service}/{path} to the configured backend. Each
// backend has its own circuit breaker over a shared connection pool.
type Forwarder struct {
	services map[string]*url.URL
	clients  map[string]httpclient.Doer
	logger   *slog.Logger
}

// NewForwarder parses the service table. timeout bounds each forwarded
// request including reading the response headers.
func NewForwarder(services map[string]string, timeout time.Duration, logger *slog.Logger) (*Forwarder, error) {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = 0
	cfg.KeepRedirects = true
	pool := httpclient.New(cfg)

	parsed := make(map[string]*url.URL, len(services))
	clients := make(map[string]httpclient.Doer, len(services))
	for name, raw := range services {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s service URL: %w", name, err)
		}
		parsed[name] = u
		clients[name] = httpclient.NewCircuitBreakerClient(pool, httpclient.DefaultCircuitBreakerConfig("gateway-"+name), logger)
		logger.Info("registered service route", slog.String("service", name), slog.String("target", raw))
	}

	return &Forwarder{services: parsed, clients: clients, logger: logger}, nil
}

// targetURL joins the backend base URL with the remaining path and query.
func targetURL(base *url.URL, rest, rawQuery string) *url.URL {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(rest, "/")
	u.RawPath = ""
	u.RawQuery = rawQuery
	return &u
}

// ServeHTTP handles a request routed as /{service}/*.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.WithContext(ctx, f.logger)

	service := chi.URLParam(r, "service")
	base, ok := f.services[service]
	if !ok {
		httputil.WriteMessage(w, http.StatusBadRequest, "Unknown service")
		return
	}
	target := targetURL(base, chi.URLParam(r, "*"), r.URL.RawQuery)

	out, err := http.NewRequestWithContext(ctx, r.Method, target.String(), r.Body)
	if err != nil {
		httputil.WriteMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	out.ContentLength = r.ContentLength
	out.Header = r.Header.Clone()
	for _, h := range strippedRequestHeaders {
		out.Header.Del(h)
	}
	out.Host = target.Host
	if p := middleware.PrincipalFromContext(ctx); p.IsAuthenticated {
		out.Header.Set(middleware.UserIDHeader, p.ID)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		out.Header.Set(middleware.CorrelationIDHeader, cid)
	}
	carrier := map[string]string{}
	tracing.InjectHeaders(ctx, carrier)
	for k, v := range carrier {
		out.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.clients[service].Do(ctx, out)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.WarnContext(ctx, "client went away before the backend answered",
				slog.String("method", r.Method),
				slog.String("target", target.String()),
			)
			return
		}
		if httpclient.IsUnavailable(err) {
			log.ErrorContext(ctx, "backend unreachable",
				slog.String("method", r.Method),
				slog.String("target", target.String()),
				slog.String("error", err.Error()),
			)
			httputil.WriteMessage(w, http.StatusServiceUnavailable, "Service unreachable: "+err.Error())
			return
		}
		log.ErrorContext(ctx, "forward failed",
			slog.String("method", r.Method),
			slog.String("target", target.String()),
			slog.String("error", err.Error()),
		)
		httputil.WriteMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for k, values := range resp.Header {
		if strippedResponseHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.WarnContext(ctx, "copy response body failed", slog.String("error", err.Error()))
	}

	log.InfoContext(ctx, "request forwarded",
		slog.String("method", r.Method),
		slog.String("target", target.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
}
