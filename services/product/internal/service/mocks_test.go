package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/shopmesh/pkg/clients"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
	"github.com/utafrali/shopmesh/services/product/internal/repository"
)

// --- Mock Repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockVariationRepository struct {
	mock.Mock
}

func (m *mockVariationRepository) Create(ctx context.Context, v *domain.Variation) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVariationRepository) GetByID(ctx context.Context, id string) (*domain.Variation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Variation), args.Error(1)
}

func (m *mockVariationRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Variation, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Variation), args.Error(1)
}

func (m *mockVariationRepository) Update(ctx context.Context, v *domain.Variation) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVariationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockShopResolver struct {
	mock.Mock
}

func (m *mockShopResolver) GetUserShop(ctx context.Context, userID string) (*clients.Shop, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Shop), args.Error(1)
}

// --- Event Recorder ---

type eventRecorder struct {
	events []string
}

func (r *eventRecorder) ProductCreated(_ context.Context, p *domain.Product) {
	r.events = append(r.events, "product.created:"+p.ID)
}

func (r *eventRecorder) ProductUpdated(_ context.Context, p *domain.Product) {
	r.events = append(r.events, "product.updated:"+p.ID)
}

func (r *eventRecorder) ProductDeleted(_ context.Context, productID string) {
	r.events = append(r.events, "product.deleted:"+productID)
}

func (r *eventRecorder) VariationCreated(_ context.Context, v *domain.Variation) {
	r.events = append(r.events, "variation.created:"+v.ID)
}

func (r *eventRecorder) VariationUpdated(_ context.Context, v *domain.Variation) {
	r.events = append(r.events, "variation.updated:"+v.ID)
}

func (r *eventRecorder) VariationDeleted(_ context.Context, _, variationID string) {
	r.events = append(r.events, "variation.deleted:"+variationID)
}
