// Package engine defines the storage behind the search service.
package engine

import (
	"context"

	"github.com/utafrali/shopmesh/services/search/internal/domain"
)

// Engine indexes and queries shop, product and variation documents.
// Implementations may use Elasticsearch or in-memory storage.
type Engine interface {
	// EnsureIndices creates any missing index.
	EnsureIndices(ctx context.Context) error

	// IndexShop, IndexProduct and IndexVariation upsert by document id.
	IndexShop(ctx context.Context, shop domain.Shop) error
	IndexProduct(ctx context.Context, product domain.Product) error
	IndexVariation(ctx context.Context, variation domain.Variation) error

	// Delete removes a document. A missing document or index is not an error.
	Delete(ctx context.Context, index, id string) error

	// SearchShops and SearchProducts run a fuzzy match and return at most
	// size hits.
	SearchShops(ctx context.Context, query string, size int) ([]domain.Shop, error)
	SearchProducts(ctx context.Context, query string, size int) ([]domain.Product, error)

	// ProductsByShop and VariationsByProduct are exact-match listings. They
	// return domain.ErrIndexNotFound when the index does not exist.
	ProductsByShop(ctx context.Context, shopID string, size int) ([]domain.Product, error)
	VariationsByProduct(ctx context.Context, productID string, size int) ([]domain.Variation, error)

	Ping(ctx context.Context) error
}
