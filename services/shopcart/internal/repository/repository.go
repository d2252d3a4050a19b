package repository

import (
	"context"

	"github.com/utafrali/shopmesh/services/shopcart/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a user's cart. A missing or expired cart is
	// apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveIfVersion stores cart only if the stored version still equals
	// expected (0 for a cart that does not exist yet). On success
	// cart.Version is advanced; a lost race reports false.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) (bool, error)

	// Delete removes a user's cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, userID string) error
}
