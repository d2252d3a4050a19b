// Package clients holds the synchronous HTTP clients services use to read
// from their peers at request time. Every call carries an explicit timeout,
// runs through a circuit breaker and propagates the caller's identity,
// correlation id and trace context.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/shopmesh/pkg/httpclient"
	"github.com/utafrali/shopmesh/pkg/logger"
	"github.com/utafrali/shopmesh/pkg/middleware"
	"github.com/utafrali/shopmesh/pkg/tracing"
)

// Config configures one peer client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxRetries applies to idempotent requests only.
	MaxRetries int
}

// NewDoer builds the transport stack shared by all peer clients: a retrying
// HTTP client behind a circuit breaker named after the peer.
func NewDoer(name string, cfg Config, log *slog.Logger) httpclient.Doer {
	hc := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	hc.MaxRetries = cfg.MaxRetries
	return httpclient.NewCircuitBreakerClient(httpclient.New(hc), httpclient.DefaultCircuitBreakerConfig(name), log)
}

// envelope is the success body of every backend service.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type peer struct {
	name    string
	baseURL string
	doer    httpclient.Doer
}

func newPeer(name, baseURL string, doer httpclient.Doer) peer {
	return peer{name: name, baseURL: strings.TrimRight(baseURL, "/"), doer: doer}
}

// call sends in (when non-nil) as JSON and decodes the "data" member of the
// response into out (when non-nil). Non-2xx answers keep the peer's status.
func (p peer) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", p.name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", p.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	propagate(ctx, req)

	resp, err := p.doer.Do(ctx, req)
	if err != nil {
		return httpclient.TransportError(err, p.name)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, p.name)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", p.name, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("decode %s response: missing data", p.name)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", p.name, err)
	}
	return nil
}

// propagate copies the request-scoped identity headers onto an outbound call.
func propagate(ctx context.Context, req *http.Request) {
	if id := middleware.UserIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.UserIDHeader, id)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set(middleware.CorrelationIDHeader, cid)
	}
	carrier := map[string]string{}
	tracing.InjectHeaders(ctx, carrier)
	for k, v := range carrier {
		req.Header.Set(k, v)
	}
}
