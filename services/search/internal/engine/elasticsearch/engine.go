// Package elasticsearch implements the search engine on Elasticsearch.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/shopmesh/pkg/tracing"
	"github.com/utafrali/shopmesh/services/search/internal/domain"
)

const tracerName = "github.com/utafrali/shopmesh/services/search/elasticsearch"

// Config holds connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Refresh is passed to write requests: "true", "false" or "wait_for".
	Refresh string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Engine is an Elasticsearch-backed engine.Engine.
type Engine struct {
	client  *elasticsearch.Client
	refresh string
	logger  *slog.Logger
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a client. It does not contact the cluster.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	refresh := cfg.Refresh
	if refresh == "" {
		refresh = "false"
	}
	return &Engine{client: client, refresh: refresh, logger: logger}, nil
}

// responseError decodes an error response. index_not_found_exception maps
// to domain.ErrIndexNotFound.
func responseError(op string, res *esapi.Response) error {
	var body esErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error.Type != "" {
		if body.Error.Type == "index_not_found_exception" {
			return fmt.Errorf("elasticsearch %s: %w", op, domain.ErrIndexNotFound)
		}
		return fmt.Errorf("elasticsearch %s: %s: %s", op, body.Error.Type, body.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}

func (e *Engine) startSpan(ctx context.Context, op, index string) (context.Context, func(error)) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "elasticsearch."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "elasticsearch"),
			attribute.String("db.operation", op),
			attribute.String("db.elasticsearch.index", index),
		),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Ping checks that the cluster answers.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndices creates every missing index with its mapping.
func (e *Engine) EnsureIndices(ctx context.Context) error {
	for _, name := range domain.Indices {
		if err := e.ensureIndex(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) ensureIndex(ctx context.Context, name string) error {
	res, err := e.client.Indices.Exists([]string{name}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch check index %s: %w", name, err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		e.logger.DebugContext(ctx, "elasticsearch index exists", slog.String("index", name))
		return nil
	}

	res, err = e.client.Indices.Create(name,
		e.client.Indices.Create.WithBody(strings.NewReader(mappings[name])),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index %s: %w", name, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		err := responseError("create index "+name, res)
		// Another replica may have created it between the two calls.
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return err
	}
	e.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", name))
	return nil
}

func (e *Engine) index(ctx context.Context, index, id string, doc any) (err error) {
	ctx, end := e.startSpan(ctx, "index", index)
	defer func() { end(err) }()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal %s document: %w", index, err)
	}
	res, err := e.client.Index(index, bytes.NewReader(data),
		e.client.Index.WithDocumentID(id),
		e.client.Index.WithRefresh(e.refresh),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("index", res)
	}
	e.logger.DebugContext(ctx, "indexed document", slog.String("index", index), slog.String("id", id))
	return nil
}

// IndexShop upserts a shop.
func (e *Engine) IndexShop(ctx context.Context, shop domain.Shop) error {
	return e.index(ctx, domain.IndexShops, shop.ID, shop)
}

// IndexProduct upserts a product.
func (e *Engine) IndexProduct(ctx context.Context, product domain.Product) error {
	return e.index(ctx, domain.IndexProducts, product.ID, product)
}

// IndexVariation upserts a variation.
func (e *Engine) IndexVariation(ctx context.Context, variation domain.Variation) error {
	return e.index(ctx, domain.IndexVariations, variation.ID, variation)
}

// Delete removes a document, ignoring 404.
func (e *Engine) Delete(ctx context.Context, index, id string) (err error) {
	ctx, end := e.startSpan(ctx, "delete", index)
	defer func() { end(err) }()

	res, err := e.client.Delete(index, id,
		e.client.Delete.WithRefresh(e.refresh),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	e.logger.DebugContext(ctx, "deleted document", slog.String("index", index), slog.String("id", id))
	return nil
}

// search runs query against index and decodes the hit sources.
func search[T any](ctx context.Context, e *Engine, index string, query map[string]any, size int) (hits []T, err error) {
	ctx, end := e.startSpan(ctx, "search", index)
	defer func() { end(err) }()

	body, err := json.Marshal(map[string]any{"query": query, "size": size})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}
	res, err := e.client.Search(
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, responseError("search "+index, res)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source T `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}
	hits = make([]T, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, h.Source)
	}
	return hits, nil
}

// SearchShops fuzzy-matches the shop name.
func (e *Engine) SearchShops(ctx context.Context, query string, size int) ([]domain.Shop, error) {
	return search[domain.Shop](ctx, e, domain.IndexShops, map[string]any{
		"match": map[string]any{
			"name": map[string]any{"query": query, "fuzziness": "AUTO"},
		},
	}, size)
}

// SearchProducts fuzzy-matches title and description, title weighted higher.
func (e *Engine) SearchProducts(ctx context.Context, query string, size int) ([]domain.Product, error) {
	return search[domain.Product](ctx, e, domain.IndexProducts, map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"title^3", "about"},
			"fuzziness": "AUTO",
		},
	}, size)
}

// ProductsByShop lists products with an exact shop_id.
func (e *Engine) ProductsByShop(ctx context.Context, shopID string, size int) ([]domain.Product, error) {
	return search[domain.Product](ctx, e, domain.IndexProducts, map[string]any{
		"term": map[string]any{"shop_id": shopID},
	}, size)
}

// VariationsByProduct lists variations with an exact product_id.
func (e *Engine) VariationsByProduct(ctx context.Context, productID string, size int) ([]domain.Variation, error) {
	return search[domain.Variation](ctx, e, domain.IndexVariations, map[string]any{
		"term": map[string]any{"product_id": productID},
	}, size)
}
