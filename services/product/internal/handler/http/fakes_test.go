package http

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
	"github.com/utafrali/shopmesh/services/product/internal/repository"
)

type fakeCatalog struct {
	mu         sync.Mutex
	products   map[string]domain.Product
	variations map[string]domain.Variation
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:   map[string]domain.Product{},
		variations: map[string]domain.Variation{},
	}
}

func (f *fakeCatalog) Create(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (f *fakeCatalog) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.ShopID != nil && p.ShopID != *filter.ShopID {
			continue
		}
		if filter.OnSale != nil && p.OnSale != *filter.OnSale {
			continue
		}
		if filter.Search != nil && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(*filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (f *fakeCatalog) Update(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeCatalog) Delete(_ context.Context, id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return nil, apperrors.NotFound("product", id)
	}
	var removed []string
	for vid, v := range f.variations {
		if v.ProductID == id {
			removed = append(removed, vid)
			delete(f.variations, vid)
		}
	}
	delete(f.products, id)
	return removed, nil
}

// fakeVariations shares storage with the catalog so product deletes cascade.
type fakeVariations struct {
	*fakeCatalog
}

func (f fakeVariations) Create(_ context.Context, v *domain.Variation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.variations {
		if existing.ProductID == v.ProductID && existing.Size == v.Size && existing.Color == v.Color {
			return apperrors.AlreadyExists("variation", "size and color", v.Size+"/"+v.Color)
		}
	}
	f.variations[v.ID] = *v
	return nil
}

func (f fakeVariations) GetByID(_ context.Context, id string) (*domain.Variation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variations[id]
	if !ok {
		return nil, apperrors.NotFound("variation", id)
	}
	return &v, nil
}

func (f fakeVariations) ListByProduct(_ context.Context, productID string) ([]domain.Variation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Variation{}
	for _, v := range f.variations {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitPrice() < out[j].UnitPrice() })
	return out, nil
}

func (f fakeVariations) Update(_ context.Context, v *domain.Variation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variations[v.ID] = *v
	return nil
}

func (f fakeVariations) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.variations[id]; !ok {
		return apperrors.NotFound("variation", id)
	}
	delete(f.variations, id)
	return nil
}

// staticShops maps user ids to the shops they own.
type staticShops map[string]string

func (s staticShops) GetUserShop(_ context.Context, userID string) (*clients.Shop, error) {
	id, ok := s[userID]
	if !ok {
		return nil, apperrors.NotFound("shop of user", userID)
	}
	return &clients.Shop{ID: id, UserID: userID, Status: "approved", IsActive: true}, nil
}

type nopEvents struct{}

func (nopEvents) ProductCreated(context.Context, *domain.Product)     {}
func (nopEvents) ProductUpdated(context.Context, *domain.Product)     {}
func (nopEvents) ProductDeleted(context.Context, string)              {}
func (nopEvents) VariationCreated(context.Context, *domain.Variation) {}
func (nopEvents) VariationUpdated(context.Context, *domain.Variation) {}
func (nopEvents) VariationDeleted(context.Context, string, string)    {}
