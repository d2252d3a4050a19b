package repository

import (
	"context"

	"github.com/utafrali/shopmesh/services/product/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	ShopID *string
	Search *string
	OnSale *bool
	// ActiveOnly hides products their shop has deactivated.
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store. A taken SKU is reported
	// as apperrors.ErrAlreadyExists.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product and its variations. It returns the ids of the
	// removed variations.
	Delete(ctx context.Context, id string) ([]string, error)
}

// VariationRepository defines the interface for variation persistence.
type VariationRepository interface {
	// Create inserts a variation. A duplicate size and color on the same
	// product is reported as apperrors.ErrAlreadyExists.
	Create(ctx context.Context, variation *domain.Variation) error

	// GetByID retrieves a variation by id.
	GetByID(ctx context.Context, id string) (*domain.Variation, error)

	// ListByProduct returns a product's variations, cheapest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Variation, error)

	// Update modifies an existing variation.
	Update(ctx context.Context, variation *domain.Variation) error

	// Delete removes a variation.
	Delete(ctx context.Context, id string) error
}
