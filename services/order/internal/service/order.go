package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/services/order/internal/domain"
	"github.com/utafrali/shopmesh/services/order/internal/repository"
)

// maxLookups bounds concurrent catalog reads during checkout.
const maxLookups = 4

// CartStore reads and clears the caller's cart.
type CartStore interface {
	GetCart(ctx context.Context) (*clients.Cart, error)
	ClearCart(ctx context.Context) error
}

// Catalog resolves variations and products.
type Catalog interface {
	GetVariation(ctx context.Context, id string) (*clients.Variation, error)
	GetProduct(ctx context.Context, id string) (*clients.Product, error)
}

// ShopResolver finds the shop a user sells through.
type ShopResolver interface {
	GetUserShop(ctx context.Context, userID string) (*clients.Shop, error)
}

// OrderEvents publishes order events.
type OrderEvents interface {
	OrderCreated(ctx context.Context, o *domain.Order)
	ItemCreated(ctx context.Context, o *domain.Order, item *domain.OrderItem)
	ItemStatusUpdated(ctx context.Context, item *domain.OrderItem)
}

// OrderService implements checkout and order item fulfilment.
type OrderService struct {
	repo    repository.OrderRepository
	carts   CartStore
	catalog Catalog
	shops   ShopResolver
	events  OrderEvents
	logger  *slog.Logger
	now     func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	repo repository.OrderRepository,
	carts CartStore,
	catalog Catalog,
	shops ShopResolver,
	ev OrderEvents,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:    repo,
		carts:   carts,
		catalog: catalog,
		shops:   shops,
		events:  ev,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// line is a cart line resolved against the catalog.
type line struct {
	quantity  int
	variation *clients.Variation
	product   *clients.Product
}

// Checkout turns the caller's cart into an order. Prices are taken from the
// catalog at the time of checkout. The cart is cleared once the order is
// stored; a failure to clear it is logged and does not fail the checkout.
func (s *OrderService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication credentials were not provided")
	}

	cart, err := s.carts.GetCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	lines, err := s.resolve(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     make([]domain.OrderItem, 0, len(lines)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, l := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:               uuid.NewString(),
			OrderID:          order.ID,
			UserID:           userID,
			ShopID:           l.product.ShopID,
			ProductID:        l.product.ID,
			ProductVariation: l.variation.ID,
			Quantity:         l.quantity,
			Price:            l.variation.UnitPrice(),
			Status:           domain.ItemStatusProcessing,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	order.TotalPrice = order.Total()

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.events.OrderCreated(ctx, order)
	for i := range order.Items {
		s.events.ItemCreated(ctx, order, &order.Items[i])
	}

	if err := s.carts.ClearCart(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after checkout",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.Int("items", len(order.Items)),
		slog.Int64("total_price", order.TotalPrice),
	)
	return order, nil
}

// resolve looks up every cart line's variation and product concurrently and
// checks that each one can still be bought.
func (s *OrderService) resolve(ctx context.Context, items []clients.CartItem) ([]line, error) {
	lines := make([]line, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity of variation %s must be positive", it.VariationID))
		}
		lines[i].quantity = it.Quantity
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for i := range items {
		g.Go(func() error {
			v, err := s.catalog.GetVariation(gctx, items[i].VariationID)
			if err != nil {
				return unavailable(err, "variation", items[i].VariationID)
			}
			lines[i].variation = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	products := make(map[string]*clients.Product)
	for _, l := range lines {
		products[l.variation.ProductID] = nil
	}
	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	fetched := make([]*clients.Product, len(ids))

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.catalog.GetProduct(gctx, id)
			if err != nil {
				return unavailable(err, "product", id)
			}
			fetched[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		products[id] = fetched[i]
	}

	for i := range lines {
		l := &lines[i]
		l.product = products[l.variation.ProductID]
		switch {
		case !l.variation.IsActive || !l.product.IsActive:
			return nil, apperrors.InvalidInput(fmt.Sprintf("variation %s is not available", l.variation.ID))
		case l.variation.AmountLimit > 0 && l.quantity > l.variation.AmountLimit:
			return nil, apperrors.InvalidInput(fmt.Sprintf(
				"quantity of variation %s exceeds the limit of %d", l.variation.ID, l.variation.AmountLimit))
		}
	}
	return lines, nil
}

// unavailable turns a catalog miss into a checkout input error. Other
// failures pass through unchanged.
func unavailable(err error, kind, id string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.InvalidInput(fmt.Sprintf("%s %s no longer exists", kind, id))
	}
	return err
}

// ListOrders returns a page of the caller's orders.
func (s *OrderService) ListOrders(ctx context.Context, userID string, p pagination.Params) (pagination.Result[domain.Order], error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, p.PageSize, p.Offset())
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(orders, total, p), nil
}

// GetOrder returns one of the caller's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", id)
	}
	return order, nil
}

// UpdateItemStatus moves an order item to a new status. The owner of the
// item's shop may make any allowed transition; the buyer may only cancel
// an item that has not shipped.
// Setting the current status again is a no-op.
func (s *OrderService) UpdateItemStatus(ctx context.Context, userID, itemID string, status domain.ItemStatus) (*domain.OrderItem, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.mayUpdate(ctx, userID, item, status)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.Forbidden("you do not have permission to update this order item")
	}

	if item.Status == status {
		return item, nil
	}
	if !item.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("order item cannot move from %s to %s", item.Status, status))
	}

	at := s.now()
	if err := s.repo.UpdateItemStatus(ctx, item.ID, status, at); err != nil {
		return nil, fmt.Errorf("update order item status: %w", err)
	}
	item.Status = status
	item.UpdatedAt = at

	s.events.ItemStatusUpdated(ctx, item)
	s.logger.InfoContext(ctx, "order item status updated",
		slog.String("order_item_id", item.ID),
		slog.String("status", string(status)),
	)
	return item, nil
}

func (s *OrderService) mayUpdate(ctx context.Context, userID string, item *domain.OrderItem, status domain.ItemStatus) (bool, error) {
	if userID == "" {
		return false, apperrors.Unauthorized("authentication credentials were not provided")
	}
	if userID == item.UserID && status == domain.ItemStatusCancelled && item.Status != domain.ItemStatusShipped {
		return true, nil
	}
	shop, err := s.shops.GetUserShop(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return shop.ID == item.ShopID, nil
}
