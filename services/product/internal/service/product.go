package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
	"github.com/utafrali/shopmesh/services/product/internal/repository"
)

// ShopResolver finds the shop a user sells through.
type ShopResolver interface {
	GetUserShop(ctx context.Context, userID string) (*clients.Shop, error)
}

// ProductEvents publishes product and variation events.
type ProductEvents interface {
	ProductCreated(ctx context.Context, p *domain.Product)
	ProductUpdated(ctx context.Context, p *domain.Product)
	ProductDeleted(ctx context.Context, productID string)
	VariationCreated(ctx context.Context, v *domain.Variation)
	VariationUpdated(ctx context.Context, v *domain.Variation)
	VariationDeleted(ctx context.Context, productID, variationID string)
}

// ProductService implements the business logic for products and their
// variations. Writes are limited to the owner of the product's shop.
type ProductService struct {
	products   repository.ProductRepository
	variations repository.VariationRepository
	shops      ShopResolver
	events     ProductEvents
	logger     *slog.Logger
	now        func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	variations repository.VariationRepository,
	shops ShopResolver,
	ev ProductEvents,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		variations: variations,
		shops:      shops,
		events:     ev,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Title      string
	About      string
	SKU        string
	OnSale     bool
	TopSale    bool
	TopPopular bool
	IsActive   *bool
}

// UpdateProductInput holds the fields an owner may change. Nil fields are
// left untouched.
type UpdateProductInput struct {
	Title      *string
	About      *string
	SKU        *string
	OnSale     *bool
	IsActive   *bool
	TopSale    *bool
	TopPopular *bool
}

// ListProductsInput holds the listing filters.
type ListProductsInput struct {
	ShopID *string
	Search *string
	OnSale *bool
}

// shopOf returns the id of the shop userID sells through.
func (s *ProductService) shopOf(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", apperrors.Unauthorized("authentication credentials were not provided")
	}
	shop, err := s.shops.GetUserShop(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", apperrors.Forbidden("you need an approved shop to manage products")
	}
	if err != nil {
		return "", err
	}
	return shop.ID, nil
}

// ownedProduct loads a product and checks that userID's shop sells it.
func (s *ProductService) ownedProduct(ctx context.Context, userID, productID string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	shopID, err := s.shopOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if product.ShopID != shopID {
		return nil, apperrors.Forbidden("you do not have permission to manage this product")
	}
	return product, nil
}

// CreateProduct adds a product to the caller's shop.
func (s *ProductService) CreateProduct(ctx context.Context, userID string, in CreateProductInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	shopID, err := s.shopOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		ID:         uuid.NewString(),
		ShopID:     shopID,
		Title:      title,
		About:      strings.TrimSpace(in.About),
		SKU:        strings.TrimSpace(in.SKU),
		OnSale:     in.OnSale,
		IsActive:   in.IsActive == nil || *in.IsActive,
		TopSale:    in.TopSale,
		TopPopular: in.TopPopular,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.events.ProductCreated(ctx, product)
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("shop_id", shopID),
	)
	return product, nil
}

// GetProduct returns a product. Inactive products are only shown to the
// owner of their shop.
func (s *ProductService) GetProduct(ctx context.Context, userID, productID string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.IsActive {
		return product, nil
	}
	if userID != "" {
		if shopID, err := s.shopOf(ctx, userID); err == nil && shopID == product.ShopID {
			return product, nil
		}
	}
	return nil, apperrors.NotFound("product", productID)
}

// ListProducts returns a page of active products.
func (s *ProductService) ListProducts(ctx context.Context, in ListProductsInput, p pagination.Params) (pagination.Result[domain.Product], error) {
	if in.Search != nil {
		if q := strings.TrimSpace(*in.Search); q == "" {
			in.Search = nil
		} else {
			in.Search = &q
		}
	}
	products, total, err := s.products.List(ctx, repository.ProductFilter{
		ShopID:     in.ShopID,
		Search:     in.Search,
		OnSale:     in.OnSale,
		ActiveOnly: true,
		Limit:      p.PageSize,
		Offset:     p.Offset(),
	})
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, p), nil
}

// UpdateProduct applies an owner's changes.
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID string, in UpdateProductInput) (*domain.Product, error) {
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		product.Title = title
	}
	if in.About != nil {
		product.About = strings.TrimSpace(*in.About)
	}
	if in.SKU != nil {
		product.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.OnSale != nil {
		product.OnSale = *in.OnSale
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.TopSale != nil {
		product.TopSale = *in.TopSale
	}
	if in.TopPopular != nil {
		product.TopPopular = *in.TopPopular
	}
	product.UpdatedAt = s.now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.events.ProductUpdated(ctx, product)
	return product, nil
}

// DeleteProduct removes a product and its variations.
func (s *ProductService) DeleteProduct(ctx context.Context, userID, productID string) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}
	variationIDs, err := s.products.Delete(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	for _, id := range variationIDs {
		s.events.VariationDeleted(ctx, productID, id)
	}
	s.events.ProductDeleted(ctx, productID)
	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", productID),
		slog.Int("variations", len(variationIDs)),
	)
	return nil
}
