package http

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/order/internal/domain"
)

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]domain.Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	f.orders[o.ID] = cp
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return &o, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrders) GetItem(_ context.Context, id string) (*domain.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		for _, it := range o.Items {
			if it.ID == id {
				return &it, nil
			}
		}
	}
	return nil, apperrors.NotFound("order item", id)
}

func (f *fakeOrders) UpdateItemStatus(_ context.Context, id string, status domain.ItemStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for oid, o := range f.orders {
		for i := range o.Items {
			if o.Items[i].ID == id {
				o.Items[i].Status = status
				o.Items[i].UpdatedAt = at
				f.orders[oid] = o
				return nil
			}
		}
	}
	return apperrors.NotFound("order item", id)
}

// fakeCart holds one cart for whoever calls.
type fakeCart struct {
	mu    sync.Mutex
	items []clients.CartItem
}

func (f *fakeCart) GetCart(context.Context) (*clients.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &clients.Cart{Items: append([]clients.CartItem(nil), f.items...)}, nil
}

func (f *fakeCart) ClearCart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	return nil
}

type fakeCatalog struct {
	variations map[string]clients.Variation
	products   map[string]clients.Product
}

func (f fakeCatalog) GetVariation(_ context.Context, id string) (*clients.Variation, error) {
	v, ok := f.variations[id]
	if !ok {
		return nil, apperrors.NotFound("variation", id)
	}
	return &v, nil
}

func (f fakeCatalog) GetProduct(_ context.Context, id string) (*clients.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

// staticShops maps user ids to the shops they own.
type staticShops map[string]string

func (s staticShops) GetUserShop(_ context.Context, userID string) (*clients.Shop, error) {
	id, ok := s[userID]
	if !ok {
		return nil, apperrors.NotFound("shop of user", userID)
	}
	return &clients.Shop{ID: id, UserID: userID}, nil
}

type nopEvents struct{}

func (nopEvents) OrderCreated(context.Context, *domain.Order)                   {}
func (nopEvents) ItemCreated(context.Context, *domain.Order, *domain.OrderItem) {}
func (nopEvents) ItemStatusUpdated(context.Context, *domain.OrderItem)          {}
