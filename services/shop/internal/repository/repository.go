package repository

import (
	"context"

	"github.com/utafrali/shopmesh/services/shop/internal/domain"
)

// ShopRepository defines the interface for shop persistence operations.
type ShopRepository interface {
	// Create inserts a shop. A taken slug or a second live shop for the same
	// user is reported as apperrors.ErrAlreadyExists.
	Create(ctx context.Context, shop *domain.Shop) error

	// GetByID retrieves a live or deleted shop by id.
	GetByID(ctx context.Context, id string) (*domain.Shop, error)

	// GetBySlug retrieves a shop by slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Shop, error)

	// GetByUser returns the live shop owned by userID, whatever its status.
	GetByUser(ctx context.Context, userID string) (*domain.Shop, error)

	// ListPublic returns approved, active shops, newest first, and their total.
	ListPublic(ctx context.Context, limit, offset int) ([]domain.Shop, int, error)

	// Update persists name, slug, about, status and is_active.
	Update(ctx context.Context, shop *domain.Shop) error
}

// OrderItemRepository persists the shop order item mirror.
type OrderItemRepository interface {
	// Exists reports whether the item is already mirrored.
	Exists(ctx context.Context, id string) (bool, error)

	// Create inserts the item unless a row with the same id exists. It
	// reports whether a row was written.
	Create(ctx context.Context, item *domain.ShopOrderItem) (bool, error)

	// GetByID retrieves one mirrored item.
	GetByID(ctx context.Context, id string) (*domain.ShopOrderItem, error)

	// ListByShop returns a shop's items, newest first, and their total.
	ListByShop(ctx context.Context, shopID string, limit, offset int) ([]domain.ShopOrderItem, int, error)

	// UpdateStatus sets the status of an item. It reports whether the item
	// exists.
	UpdateStatus(ctx context.Context, id string, status domain.OrderItemStatus) (bool, error)
}
