package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestMerge(t *testing.T) {
	sources := []Source{
		{Name: "shop", Tag: "Shop"},
		{Name: "product", Tag: "Product"},
		{Name: "search", Tag: "Search"},
	}
	docs := []map[string]any{
		decode(t, `{
			"paths": {"/api/shops/{shop_id}": {
				"parameters": [{"name": "shop_id", "in": "path"}],
				"get": {"operationId": "get_shop", "tags": ["shops"]},
				"delete": {"operationId": "delete_shop"}
			}},
			"components": {"schemas": {"Shop": {"type": "object"}, "Error": {"title": "shop error"}}}
		}`),
		decode(t, `{
			"paths": {"/api/products/": {"post": {"operationId": "create_product"}}},
			"components": {"schemas": {"Error": {"title": "product error"}}, "parameters": {"Page": {"name": "page"}}}
		}`),
		nil,
	}

	merged := Merge("shopmesh", "1.0.0", sources, docs)

	paths := merged["paths"].(map[string]any)
	require.Len(t, paths, 2)

	shopItem := paths["/shop/api/shops/{shop_id}"].(map[string]any)
	get := shopItem["get"].(map[string]any)
	assert.Equal(t, []any{"Shop"}, get["tags"])
	assert.Equal(t, []any{map[string]any{"BearerAuth": []any{}}}, get["security"])
	assert.Equal(t, "get_shop", get["operationId"])
	assert.Contains(t, shopItem["delete"], "security")
	// Path-level parameters are not operations.
	assert.IsType(t, []any{}, shopItem["parameters"])

	post := paths["/product/api/products/"].(map[string]any)["post"].(map[string]any)
	assert.Equal(t, []any{"Product"}, post["tags"])

	components := merged["components"].(map[string]any)
	schemas := components["schemas"].(map[string]any)
	assert.Contains(t, schemas, "Shop")
	assert.Equal(t, "product error", schemas["Error"].(map[string]any)["title"], "later service wins")
	assert.Contains(t, components["parameters"], "Page")

	scheme := components["securitySchemes"].(map[string]any)["BearerAuth"].(map[string]any)
	assert.Equal(t, "bearer", scheme["scheme"])
	assert.Equal(t, "shopmesh", merged["info"].(map[string]any)["title"])
}

func TestMerge_DoesNotMutateSource(t *testing.T) {
	doc := decode(t, `{"paths":{"/a":{"get":{"tags":["orig"]}}}}`)
	Merge("x", "1", []Source{{Name: "s", Tag: "S"}}, []map[string]any{doc})

	get := doc["paths"].(map[string]any)["/a"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, []any{"orig"}, get["tags"])
	assert.NotContains(t, get, "security")
}

func TestMerge_NoDocuments(t *testing.T) {
	merged := Merge("x", "1", nil, nil)
	assert.Empty(t, merged["paths"])
	assert.Contains(t, merged["components"].(map[string]any)["securitySchemes"], "BearerAuth")
}
