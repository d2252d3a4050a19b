package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/shopmesh/pkg/clients"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
)

// --- Mock Repositories ---

type mockShopRepository struct {
	mock.Mock
}

func (m *mockShopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *mockShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) GetBySlug(ctx context.Context, slug string) (*domain.Shop, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) GetByUser(ctx context.Context, userID string) (*domain.Shop, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) ListPublic(ctx context.Context, limit, offset int) ([]domain.Shop, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Shop), args.Int(1), args.Error(2)
}

func (m *mockShopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

type mockOrderItemRepository struct {
	mock.Mock
}

func (m *mockOrderItemRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderItemRepository) Create(ctx context.Context, item *domain.ShopOrderItem) (bool, error) {
	args := m.Called(ctx, item)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderItemRepository) GetByID(ctx context.Context, id string) (*domain.ShopOrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShopOrderItem), args.Error(1)
}

func (m *mockOrderItemRepository) ListByShop(ctx context.Context, shopID string, limit, offset int) ([]domain.ShopOrderItem, int, error) {
	args := m.Called(ctx, shopID, limit, offset)
	return args.Get(0).([]domain.ShopOrderItem), args.Int(1), args.Error(2)
}

func (m *mockOrderItemRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderItemStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

type mockOrderUpdater struct {
	mock.Mock
}

func (m *mockOrderUpdater) UpdateItemStatus(ctx context.Context, itemID, status string) (*clients.OrderItem, error) {
	args := m.Called(ctx, itemID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.OrderItem), args.Error(1)
}

// --- Event Recorder ---

type recordedEvent struct {
	kind   string
	shopID string
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) add(kind string, s *domain.Shop) bool {
	r.events = append(r.events, recordedEvent{kind: kind, shopID: s.ID})
	return true
}

func (r *eventRecorder) ShopCreated(_ context.Context, s *domain.Shop) bool  { return r.add("created", s) }
func (r *eventRecorder) ShopApproved(_ context.Context, s *domain.Shop) bool { return r.add("approved", s) }
func (r *eventRecorder) ShopUpdated(_ context.Context, s *domain.Shop) bool  { return r.add("updated", s) }
func (r *eventRecorder) ShopDeleted(_ context.Context, s *domain.Shop) bool  { return r.add("deleted", s) }

func (r *eventRecorder) kinds() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}
