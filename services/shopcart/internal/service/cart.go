package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/shopcart/internal/domain"
	"github.com/utafrali/shopmesh/services/shopcart/internal/repository"
)

// Cart limits.
const (
	// MaxQuantityPerItem caps one line when the variation sets no limit.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines.
	MaxItemsPerCart = 50
)

// maxSaveAttempts bounds retries after losing a concurrent write.
const maxSaveAttempts = 3

// Catalog resolves product variations.
type Catalog interface {
	GetVariation(ctx context.Context, id string) (*clients.Variation, error)
}

// CartService implements the business logic for cart operations.
type CartService struct {
	carts   repository.CartRepository
	catalog Catalog
	logger  *slog.Logger
	cartTTL time.Duration
	now     func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, catalog Catalog, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
		cartTTL: cartTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetCart returns the user's cart. A user without a cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return s.load(ctx, userID)
}

// AddItem puts quantity units of a variation in the cart, merging with an
// existing line for the same variation.
func (s *CartService) AddItem(ctx context.Context, userID, variationID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	v, err := s.catalog.GetVariation(ctx, variationID)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, apperrors.InvalidInput(fmt.Sprintf("product variation %s is not available", variationID))
	}
	limit := quantityLimit(v)

	cart, err := s.mutate(ctx, userID, func(c *domain.Cart) error {
		if i := c.FindItem(v.ID); i >= 0 {
			total := c.Items[i].Quantity + quantity
			if total > limit {
				return apperrors.InvalidInput(fmt.Sprintf("quantity of variation %s must not exceed %d", v.ID, limit))
			}
			c.Items[i].Quantity = total
			return nil
		}
		if quantity > limit {
			return apperrors.InvalidInput(fmt.Sprintf("quantity of variation %s must not exceed %d", v.ID, limit))
		}
		if len(c.Items) >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		c.Items = append(c.Items, domain.CartItem{
			VariationID: v.ID,
			ProductID:   v.ProductID,
			Quantity:    quantity,
			AddedAt:     s.now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("variation_id", v.ID),
		slog.Int("quantity", quantity),
	)
	return cart, nil
}

func quantityLimit(v *clients.Variation) int {
	if v.AmountLimit > 0 && v.AmountLimit < MaxQuantityPerItem {
		return v.AmountLimit
	}
	return MaxQuantityPerItem
}

// UpdateItemQuantity sets the quantity of a line. Zero removes it. The
// variation's limit is not rechecked here; orders enforce it at checkout.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, variationID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		i := c.FindItem(variationID)
		if i < 0 {
			return apperrors.NotFound("cart item", variationID)
		}
		if quantity == 0 {
			c.RemoveAt(i)
		} else {
			c.Items[i].Quantity = quantity
		}
		return nil
	})
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, variationID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		i := c.FindItem(variationID)
		if i < 0 {
			return apperrors.NotFound("cart item", variationID)
		}
		c.RemoveAt(i)
		return nil
	})
}

// ClearCart removes all items from the user's cart. Clearing an empty cart
// succeeds.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))
	return nil
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// mutate applies fn to a fresh copy of the cart and saves it with an
// optimistic version check, reloading after a lost race.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		cart, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		expected := cart.Version
		if err := fn(cart); err != nil {
			return nil, err
		}

		now := s.now()
		cart.UpdatedAt = now
		cart.ExpiresAt = now.Add(s.cartTTL)

		ok, err := s.carts.SaveIfVersion(ctx, cart, expected)
		if err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			return cart, nil
		}
		s.logger.DebugContext(ctx, "cart write lost a race, retrying",
			slog.String("user_id", userID),
			slog.Int("attempt", attempt),
		)
	}
	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}
