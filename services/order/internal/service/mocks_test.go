package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/shopmesh/pkg/clients"
	"github.com/utafrali/shopmesh/services/order/internal/domain"
)

// --- Mock Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) GetItem(ctx context.Context, id string) (*domain.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderItem), args.Error(1)
}

func (m *mockOrderRepository) UpdateItemStatus(ctx context.Context, id string, status domain.ItemStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

// --- Mock Peers ---

type mockCarts struct {
	mock.Mock
}

func (m *mockCarts) GetCart(ctx context.Context) (*clients.Cart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Cart), args.Error(1)
}

func (m *mockCarts) ClearCart(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

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

type mockShops struct {
	mock.Mock
}

func (m *mockShops) GetUserShop(ctx context.Context, userID string) (*clients.Shop, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Shop), args.Error(1)
}

// --- Event Recorder ---

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) OrderCreated(_ context.Context, o *domain.Order) {
	r.add("order.created:" + o.ID)
}

func (r *eventRecorder) ItemCreated(_ context.Context, _ *domain.Order, item *domain.OrderItem) {
	r.add("order.item.created:" + item.ProductVariation)
}

func (r *eventRecorder) ItemStatusUpdated(_ context.Context, item *domain.OrderItem) {
	r.add("order.item.status.updated:" + string(item.Status))
}
