package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
)

// VariationInput holds the parameters for creating a variation.
type VariationInput struct {
	Size        string
	Color       string
	Price       int64
	Discount    int64
	AmountLimit int
	IsActive    *bool
}

// UpdateVariationInput holds the variation fields an owner may change.
type UpdateVariationInput struct {
	Size        *string
	Color       *string
	Price       *int64
	Discount    *int64
	AmountLimit *int
	IsActive    *bool
}

func validatePricing(v *domain.Variation) error {
	switch {
	case v.Price < 0:
		return apperrors.InvalidInput("price must not be negative")
	case v.Discount < 0:
		return apperrors.InvalidInput("discount must not be negative")
	case v.Discount > v.Price:
		return apperrors.InvalidInput("discount must not exceed price")
	case v.AmountLimit < 0:
		return apperrors.InvalidInput("amount_limit must not be negative")
	}
	return nil
}

// CreateVariation adds a variation to an owned product.
func (s *ProductService) CreateVariation(ctx context.Context, userID, productID string, in VariationInput) (*domain.Variation, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	now := s.now()
	v := &domain.Variation{
		ID:          uuid.NewString(),
		ProductID:   productID,
		Size:        strings.TrimSpace(in.Size),
		Color:       strings.TrimSpace(in.Color),
		Price:       in.Price,
		Discount:    in.Discount,
		AmountLimit: in.AmountLimit,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validatePricing(v); err != nil {
		return nil, err
	}
	if err := s.variations.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create variation: %w", err)
	}

	s.events.VariationCreated(ctx, v)
	s.logger.InfoContext(ctx, "variation created",
		slog.String("variation_id", v.ID),
		slog.String("product_id", productID),
	)
	return v, nil
}

// GetVariation returns a variation. Peers read it to price order lines.
func (s *ProductService) GetVariation(ctx context.Context, id string) (*domain.Variation, error) {
	return s.variations.GetByID(ctx, id)
}

// ListVariations returns the variations of a visible product.
func (s *ProductService) ListVariations(ctx context.Context, userID, productID string) ([]domain.Variation, error) {
	if _, err := s.GetProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.variations.ListByProduct(ctx, productID)
}

// UpdateVariation applies an owner's changes to a variation.
func (s *ProductService) UpdateVariation(ctx context.Context, userID, id string, in UpdateVariationInput) (*domain.Variation, error) {
	v, err := s.variations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProduct(ctx, userID, v.ProductID); err != nil {
		return nil, err
	}

	if in.Size != nil {
		v.Size = strings.TrimSpace(*in.Size)
	}
	if in.Color != nil {
		v.Color = strings.TrimSpace(*in.Color)
	}
	if in.Price != nil {
		v.Price = *in.Price
	}
	if in.Discount != nil {
		v.Discount = *in.Discount
	}
	if in.AmountLimit != nil {
		v.AmountLimit = *in.AmountLimit
	}
	if in.IsActive != nil {
		v.IsActive = *in.IsActive
	}
	if err := validatePricing(v); err != nil {
		return nil, err
	}
	v.UpdatedAt = s.now()

	if err := s.variations.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update variation: %w", err)
	}
	s.events.VariationUpdated(ctx, v)
	return v, nil
}

// DeleteVariation removes a variation from an owned product.
func (s *ProductService) DeleteVariation(ctx context.Context, userID, id string) error {
	v, err := s.variations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, userID, v.ProductID); err != nil {
		return err
	}
	if err := s.variations.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete variation: %w", err)
	}
	s.events.VariationDeleted(ctx, v.ProductID, id)
	return nil
}
