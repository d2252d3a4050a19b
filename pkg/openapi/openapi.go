// Package openapi renders a minimal OpenAPI 3 document from a service's chi
// routes. Each backend serves it at /openapi.json, where the gateway picks
// it up for aggregation.
package openapi

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopmesh/pkg/httputil"
)

// Version is the OpenAPI version emitted.
const Version = "3.0.3"

// Info describes the service in the document header.
type Info struct {
	Title   string
	Version string
	// Schemas become components.schemas, merged over the shared defaults.
	Schemas map[string]any
}

// Document is an OpenAPI document kept as generic JSON so the gateway can
// merge documents from services it knows nothing about.
type Document map[string]any

var (
	paramPattern = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

	internalPrefixes = []string{"/health", "/metrics", "/openapi.json", "/debug"}
)

func internal(route string) bool {
	for _, p := range internalPrefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

// Build walks routes and describes every method/path pair. Wildcard and
// operational routes are left out.
func Build(routes chi.Routes, info Info) (Document, error) {
	paths := map[string]map[string]any{}

	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if strings.Contains(route, "*") || internal(route) {
			return nil
		}
		path := paramPattern.ReplaceAllString(route, "{$1}")
		item, ok := paths[path]
		if !ok {
			item = map[string]any{}
			paths[path] = item
		}
		item[strings.ToLower(method)] = operation(method, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	schemas := map[string]any{
		"Error": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"code":       map[string]any{"type": "string"},
						"message":    map[string]any{"type": "string"},
						"request_id": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
	for k, v := range info.Schemas {
		schemas[k] = v
	}

	docPaths := make(map[string]any, len(paths))
	for k, v := range paths {
		docPaths[k] = v
	}

	return Document{
		"openapi":    Version,
		"info":       map[string]any{"title": info.Title, "version": info.Version},
		"paths":      docPaths,
		"components": map[string]any{"schemas": schemas},
	}, nil
}

func operation(method, path string) map[string]any {
	op := map[string]any{
		"operationId": operationID(method, path),
		"responses": map[string]any{
			"default": map[string]any{
				"description": "Error",
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{"$ref": "#/components/schemas/Error"},
					},
				},
			},
			successStatus(method): map[string]any{"description": "Successful Response"},
		},
	}

	var params []any
	for _, m := range paramPattern.FindAllStringSubmatch(path, -1) {
		params = append(params, map[string]any{
			"name":     m[1],
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		})
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		op["requestBody"] = map[string]any{
			"content": map[string]any{
				"application/json": map[string]any{"schema": map[string]any{"type": "object"}},
			},
		}
	}
	return op
}

func successStatus(method string) string {
	switch method {
	case http.MethodPost:
		return "201"
	case http.MethodDelete:
		return "204"
	default:
		return "200"
	}
}

// operationID turns "GET /api/shops/{shop_id}/" into "get_api_shops_shop_id".
func operationID(method, path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '{' || r == '}' || r == '-' || r == '.'
	})
	return strings.ToLower(method) + "_" + strings.Join(parts, "_")
}

// Paths returns the document's paths in sorted order.
func (d Document) Paths() []string {
	paths, _ := d["paths"].(map[string]any)
	out := make([]string, 0, len(paths))
	for p := range paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Handler serves the document for routes. It is built on first request,
// once every route has been registered.
func Handler(routes chi.Routes, info Info) http.HandlerFunc {
	var (
		once sync.Once
		doc  Document
		err  error
	)
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { doc, err = Build(routes, info) })
		if err != nil {
			httputil.WriteError(w, r, err, nil)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, doc)
	}
}
