// Package service holds the search service's business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/search/internal/domain"
	"github.com/utafrali/shopmesh/services/search/internal/engine"
)

var partialResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "search_partial_results_total",
	Help: "Free-text queries answered without one document type because its index query failed.",
}, []string{"index"})

// indexNotFound is the client-facing form of domain.ErrIndexNotFound.
func indexNotFound(index string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INDEX_NOT_FOUND",
		Message: fmt.Sprintf("search index %q does not exist yet", index),
		Status:  http.StatusNotFound,
		Err:     domain.ErrIndexNotFound,
	}
}

// SearchService applies index updates and answers queries.
type SearchService struct {
	engine engine.Engine
	logger *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(eng engine.Engine, logger *slog.Logger) *SearchService {
	return &SearchService{engine: eng, logger: logger}
}

// IndexShop upserts a shop document.
func (s *SearchService) IndexShop(ctx context.Context, shop domain.Shop) error {
	if shop.ID == "" {
		return apperrors.InvalidInput("shop id is required")
	}
	if err := s.engine.IndexShop(ctx, shop); err != nil {
		return fmt.Errorf("index shop %s: %w", shop.ID, err)
	}
	return nil
}

// IndexProduct upserts a product document.
func (s *SearchService) IndexProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if err := s.engine.IndexProduct(ctx, product); err != nil {
		return fmt.Errorf("index product %s: %w", product.ID, err)
	}
	return nil
}

// IndexVariation upserts a variation document.
func (s *SearchService) IndexVariation(ctx context.Context, variation domain.Variation) error {
	if variation.ID == "" {
		return apperrors.InvalidInput("variation id is required")
	}
	if err := s.engine.IndexVariation(ctx, variation); err != nil {
		return fmt.Errorf("index variation %s: %w", variation.ID, err)
	}
	return nil
}

// Remove deletes a document; a missing one is not an error.
func (s *SearchService) Remove(ctx context.Context, index, id string) error {
	if err := s.engine.Delete(ctx, index, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, id, err)
	}
	return nil
}

// Search queries shops and products concurrently. A failing type yields an
// empty list instead of failing the request.
func (s *SearchService) Search(ctx context.Context, query string, size int) (*domain.Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput("query parameter q is required")
	}
	size = domain.ClampSize(size)

	res := &domain.Results{Shops: []domain.Shop{}, Products: []domain.Product{}}
	var g errgroup.Group
	g.Go(func() error {
		shops, err := s.engine.SearchShops(ctx, query, size)
		if err != nil {
			s.partial(ctx, domain.IndexShops, err)
			return nil
		}
		if shops != nil {
			res.Shops = shops
		}
		return nil
	})
	g.Go(func() error {
		products, err := s.engine.SearchProducts(ctx, query, size)
		if err != nil {
			s.partial(ctx, domain.IndexProducts, err)
			return nil
		}
		if products != nil {
			res.Products = products
		}
		return nil
	})
	_ = g.Wait()
	return res, nil
}

func (s *SearchService) partial(ctx context.Context, index string, err error) {
	partialResults.WithLabelValues(index).Inc()
	s.logger.WarnContext(ctx, "search query failed, returning partial results",
		slog.String("index", index),
		slog.String("error", err.Error()),
	)
}

// ProductsByShop lists a shop's products.
func (s *SearchService) ProductsByShop(ctx context.Context, shopID string, size int) ([]domain.Product, error) {
	products, err := s.engine.ProductsByShop(ctx, shopID, domain.ClampSize(size))
	if errors.Is(err, domain.ErrIndexNotFound) {
		return nil, indexNotFound(domain.IndexProducts)
	}
	if err != nil {
		return nil, fmt.Errorf("list products of shop %s: %w", shopID, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// VariationsByProduct lists a product's variations.
func (s *SearchService) VariationsByProduct(ctx context.Context, productID string, size int) ([]domain.Variation, error) {
	variations, err := s.engine.VariationsByProduct(ctx, productID, domain.ClampSize(size))
	if errors.Is(err, domain.ErrIndexNotFound) {
		return nil, indexNotFound(domain.IndexVariations)
	}
	if err != nil {
		return nil, fmt.Errorf("list variations of product %s: %w", productID, err)
	}
	if variations == nil {
		variations = []domain.Variation{}
	}
	return variations, nil
}
