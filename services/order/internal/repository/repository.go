package repository

import (
	"context"
	"time"

	"github.com/utafrali/shopmesh/services/order/internal/domain"
)

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns a user's orders, newest first, along with the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error)

	// GetItem retrieves one order item. UserID is filled from its order.
	GetItem(ctx context.Context, id string) (*domain.OrderItem, error)

	// UpdateItemStatus changes the status of an order item.
	UpdateItemStatus(ctx context.Context, id string, status domain.ItemStatus, at time.Time) error
}
