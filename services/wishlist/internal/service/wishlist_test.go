package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/logger"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

const (
	userID      = "5e0c1c2a-9a57-4f3e-8f0e-1a2b3c4d5e6f"
	shopID      = "3f2a1b0c-9d8e-4f7a-b6c5-d4e3f2a1b0c9"
	productID   = "9c8b7a6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
	variationID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	items   *mockWishlistRepository
	users   *mockUserRepository
	catalog *mockCatalog
	events  *eventRecorder
	svc     *WishlistService
}

func newFixture() *fixture {
	f := &fixture{
		items:   new(mockWishlistRepository),
		users:   new(mockUserRepository),
		catalog: new(mockCatalog),
		events:  &eventRecorder{},
	}
	f.svc = NewWishlistService(f.items, f.users, f.catalog, f.events, logger.Discard())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) knownUser(ctx context.Context) {
	f.users.On("Exists", ctx, userID).Return(true, nil)
}

func activeVariation() *clients.Variation {
	return &clients.Variation{ID: variationID, ProductID: productID, Price: 1000, IsActive: true}
}

func TestAdd_ResolvesShopAndPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.knownUser(ctx)
	f.catalog.On("GetVariation", ctx, variationID).Return(activeVariation(), nil)
	f.catalog.On("GetProduct", ctx, productID).Return(&clients.Product{ID: productID, ShopID: shopID, IsActive: true}, nil)
	f.items.On("Add", ctx, mock.MatchedBy(func(it *domain.WishlistItem) bool {
		return it.UserID == userID && it.ShopID == shopID && it.ProductID == productID && it.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	item, err := f.svc.Add(ctx, userID, variationID)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, []string{"wishlist.created:" + variationID}, f.events.events)
	f.items.AssertExpectations(t)
}

func TestAdd_UnknownUserIsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.users.On("Exists", ctx, userID).Return(false, nil)

	_, err := f.svc.Add(ctx, userID, variationID)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	f.catalog.AssertNotCalled(t, "GetVariation", mock.Anything, mock.Anything)
	assert.Empty(t, f.events.events)
}

func TestAdd_RequiresUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Add(context.Background(), "", variationID)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAdd_CatalogProblems(t *testing.T) {
	inactive := activeVariation()
	inactive.IsActive = false

	tests := []struct {
		name      string
		variation *clients.Variation
		lookupErr error
		wantErr   error
	}{
		{"missing variation", nil, apperrors.NotFound("product-service", "gone"), apperrors.ErrInvalidInput},
		{"inactive variation", inactive, nil, apperrors.ErrInvalidInput},
		{"product service down", nil, apperrors.ServiceUnavailable("product-service", nil), apperrors.ErrServiceUnavail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			f.knownUser(ctx)
			if tt.variation != nil {
				f.catalog.On("GetVariation", ctx, variationID).Return(tt.variation, nil)
			} else {
				f.catalog.On("GetVariation", ctx, variationID).Return(nil, tt.lookupErr)
			}

			_, err := f.svc.Add(ctx, userID, variationID)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			f.items.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
		})
	}
}

func TestAdd_Duplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.knownUser(ctx)
	f.catalog.On("GetVariation", ctx, variationID).Return(activeVariation(), nil)
	f.catalog.On("GetProduct", ctx, productID).Return(&clients.Product{ID: productID, ShopID: shopID}, nil)
	f.items.On("Add", ctx, mock.Anything).Return(apperrors.AlreadyExists("wishlist item", "product_variation_id", variationID))

	_, err := f.svc.Add(ctx, userID, variationID)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.Empty(t, f.events.events)
}

func TestRemove_Publishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.knownUser(ctx)
	f.items.On("Remove", ctx, userID, variationID).Return(&domain.WishlistItem{ID: "W1", UserID: userID, ProductVariationID: variationID}, nil)

	require.NoError(t, f.svc.Remove(ctx, userID, variationID))
	assert.Equal(t, []string{"wishlist.deleted:" + variationID}, f.events.events)
}

func TestRemove_Missing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.knownUser(ctx)
	f.items.On("Remove", ctx, userID, variationID).Return(nil, apperrors.NotFound("wishlist item", variationID))

	err := f.svc.Remove(ctx, userID, variationID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, f.events.events)
}

func TestList_Paginates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	items := []domain.WishlistItem{{ID: "W1"}, {ID: "W2"}}
	f.items.On("List", ctx, userID, 2, 2).Return(items, 5, nil)

	res, err := f.svc.List(ctx, userID, pagination.Params{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)
	assert.Len(t, res.Results, 2)
}

func TestContains(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.items.On("Exists", ctx, userID, variationID).Return(true, nil)

	ok, err := f.svc.Contains(ctx, userID, variationID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.users.On("Upsert", ctx, &domain.KnownUser{ID: userID, Email: "ann@example.com", IsActive: true}).Return(nil)

	require.NoError(t, f.svc.RegisterUser(ctx, domain.KnownUser{ID: userID, Email: "ann@example.com", IsActive: true}))
	f.users.AssertExpectations(t)
}

func TestRegisterUser_BadID(t *testing.T) {
	f := newFixture()

	err := f.svc.RegisterUser(context.Background(), domain.KnownUser{ID: "7"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	f.users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
