package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/shopmesh/pkg/clients"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

// --- Mock Repositories ---

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockWishlistRepository) Remove(ctx context.Context, userID, variationID string) (*domain.WishlistItem, error) {
	args := m.Called(ctx, userID, variationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistRepository) List(ctx context.Context, userID string, limit, offset int) ([]domain.WishlistItem, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.WishlistItem), args.Int(1), args.Error(2)
}

func (m *mockWishlistRepository) Exists(ctx context.Context, userID, variationID string) (bool, error) {
	args := m.Called(ctx, userID, variationID)
	return args.Bool(0), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *domain.KnownUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// --- Mock Catalog ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetVariation(ctx context.Context, id string) (*clients.Variation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Variation), args.Error(1)
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*clients.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Product), args.Error(1)
}

type eventRecorder struct {
	events []string
}

func (r *eventRecorder) WishlistCreated(_ context.Context, item *domain.WishlistItem) {
	r.events = append(r.events, "wishlist.created:"+item.ProductVariationID)
}

func (r *eventRecorder) WishlistDeleted(_ context.Context, item *domain.WishlistItem) {
	r.events = append(r.events, "wishlist.deleted:"+item.ProductVariationID)
}
