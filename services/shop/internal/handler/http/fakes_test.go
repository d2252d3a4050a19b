package http

import (
	"context"
	"sort"
	"sync"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
)

type fakeShops struct {
	mu    sync.Mutex
	shops map[string]domain.Shop
}

func newFakeShops() *fakeShops {
	return &fakeShops{shops: map[string]domain.Shop{}}
}

func (f *fakeShops) Create(_ context.Context, s *domain.Shop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.shops {
		if existing.Slug == s.Slug {
			return apperrors.AlreadyExists("shop", "slug", s.Slug)
		}
	}
	f.shops[s.ID] = *s
	return nil
}

func (f *fakeShops) GetByID(_ context.Context, id string) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shops[id]
	if !ok {
		return nil, apperrors.NotFound("shop", id)
	}
	return &s, nil
}

func (f *fakeShops) GetBySlug(_ context.Context, slug string) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shops {
		if s.Slug == slug {
			return &s, nil
		}
	}
	return nil, apperrors.NotFound("shop", slug)
}

func (f *fakeShops) GetByUser(_ context.Context, userID string) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shops {
		if s.UserID == userID && s.IsActive {
			return &s, nil
		}
	}
	return nil, apperrors.NotFound("shop of user", userID)
}

func (f *fakeShops) ListPublic(_ context.Context, limit, offset int) ([]domain.Shop, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Shop
	for _, s := range f.shops {
		if s.IsPublic() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return out[offset:end], total, nil
}

func (f *fakeShops) Update(_ context.Context, s *domain.Shop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shops[s.ID]; !ok {
		return apperrors.NotFound("shop", s.ID)
	}
	f.shops[s.ID] = *s
	return nil
}

type fakeItems struct {
	mu    sync.Mutex
	items map[string]domain.ShopOrderItem
}

func newFakeItems() *fakeItems {
	return &fakeItems{items: map[string]domain.ShopOrderItem{}}
}

func (f *fakeItems) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeItems) Create(_ context.Context, it *domain.ShopOrderItem) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[it.ID]; ok {
		return false, nil
	}
	f.items[it.ID] = *it
	return true, nil
}

func (f *fakeItems) GetByID(_ context.Context, id string) (*domain.ShopOrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, apperrors.NotFound("order item", id)
	}
	return &it, nil
}

func (f *fakeItems) ListByShop(_ context.Context, shopID string, _, _ int) ([]domain.ShopOrderItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ShopOrderItem
	for _, it := range f.items {
		if it.ShopID == shopID {
			out = append(out, it)
		}
	}
	return out, len(out), nil
}

func (f *fakeItems) UpdateStatus(_ context.Context, id string, status domain.OrderItemStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return false, nil
	}
	it.Status = status
	f.items[id] = it
	return true, nil
}

// echoOrders accepts every status change.
type echoOrders struct{}

func (echoOrders) UpdateItemStatus(_ context.Context, itemID, status string) (*clients.OrderItem, error) {
	return &clients.OrderItem{ID: itemID, Status: status}, nil
}

type nopEvents struct{}

func (nopEvents) ShopCreated(context.Context, *domain.Shop) bool  { return true }
func (nopEvents) ShopApproved(context.Context, *domain.Shop) bool { return true }
func (nopEvents) ShopUpdated(context.Context, *domain.Shop) bool  { return true }
func (nopEvents) ShopDeleted(context.Context, *domain.Shop) bool  { return true }
