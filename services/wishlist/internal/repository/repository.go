package repository

import (
	"context"

	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

// WishlistRepository defines the interface for wishlist persistence operations.
type WishlistRepository interface {
	// Add inserts an item. A variation already on the user's wishlist is
	// reported as apperrors.ErrAlreadyExists.
	Add(ctx context.Context, item *domain.WishlistItem) error

	// Remove deletes the user's entry for a variation and returns it.
	Remove(ctx context.Context, userID, variationID string) (*domain.WishlistItem, error)

	// List returns a page of the user's items, newest first, and their total.
	List(ctx context.Context, userID string, limit, offset int) ([]domain.WishlistItem, int, error)

	// Exists checks whether a variation is on the user's wishlist.
	Exists(ctx context.Context, userID, variationID string) (bool, error)
}

// UserRepository stores the users announced by the user service.
type UserRepository interface {
	// Upsert inserts or refreshes a known user.
	Upsert(ctx context.Context, user *domain.KnownUser) error

	// Exists reports whether the user has been announced.
	Exists(ctx context.Context, id string) (bool, error)
}
