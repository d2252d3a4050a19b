package http

import (
	"context"
	"sort"
	"sync"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

type fakeItems struct {
	mu    sync.Mutex
	items []domain.WishlistItem
}

func (f *fakeItems) Add(_ context.Context, item *domain.WishlistItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.UserID == item.UserID && it.ProductVariationID == item.ProductVariationID {
			return apperrors.AlreadyExists("wishlist item", "product_variation_id", item.ProductVariationID)
		}
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeItems) Remove(_ context.Context, userID, variationID string) (*domain.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.UserID == userID && it.ProductVariationID == variationID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return &it, nil
		}
	}
	return nil, apperrors.NotFound("wishlist item", variationID)
}

func (f *fakeItems) List(_ context.Context, userID string, limit, offset int) ([]domain.WishlistItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []domain.WishlistItem
	for _, it := range f.items {
		if it.UserID == userID {
			mine = append(mine, it)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := len(mine)
	if offset >= total {
		return []domain.WishlistItem{}, total, nil
	}
	end := min(offset+limit, total)
	return mine[offset:end], total, nil
}

func (f *fakeItems) Exists(_ context.Context, userID, variationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.UserID == userID && it.ProductVariationID == variationID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]domain.KnownUser
}

func (f *fakeUsers) Upsert(_ context.Context, u *domain.KnownUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	return ok && u.IsActive, nil
}

type fakeCatalog struct {
	variations map[string]clients.Variation
	products   map[string]clients.Product
}

func (f *fakeCatalog) GetVariation(_ context.Context, id string) (*clients.Variation, error) {
	v, ok := f.variations[id]
	if !ok {
		return nil, apperrors.NotFound("product variation", id)
	}
	return &v, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*clients.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

type nopEvents struct{}

func (nopEvents) WishlistCreated(context.Context, *domain.WishlistItem) {}
func (nopEvents) WishlistDeleted(context.Context, *domain.WishlistItem) {}
