package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
	"github.com/utafrali/shopmesh/services/shop/internal/repository"
)

// OrderUpdater changes an item's status in the order service, which owns
// order items.
type OrderUpdater interface {
	UpdateItemStatus(ctx context.Context, itemID, status string) (*clients.OrderItem, error)
}

// OrderItemService manages the order items sold by shops.
type OrderItemService struct {
	items  repository.OrderItemRepository
	shops  repository.ShopRepository
	orders OrderUpdater
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderItemService creates a new order item service.
func NewOrderItemService(
	items repository.OrderItemRepository,
	shops repository.ShopRepository,
	orders OrderUpdater,
	logger *slog.Logger,
) *OrderItemService {
	return &OrderItemService{
		items:  items,
		shops:  shops,
		orders: orders,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// MirrorInput describes an order item announced by the order service.
type MirrorInput struct {
	ID               string
	OrderID          string
	ShopID           string
	ProductID        string
	ProductVariation string
	Quantity         int
	Price            int64
	Status           string
	UserID           string
}

// Mirror records a new order item for its shop. Items that are already
// mirrored are left untouched. It returns apperrors.ErrNotFound when the
// shop is unknown.
func (s *OrderItemService) Mirror(ctx context.Context, in MirrorInput) error {
	if in.ID == "" || in.ShopID == "" || in.OrderID == "" {
		return apperrors.InvalidInput("order item, order and shop ids are required")
	}
	if in.Quantity <= 0 {
		return apperrors.InvalidInput("quantity must be positive")
	}
	status := domain.OrderItemStatus(in.Status)
	if in.Status == "" {
		status = domain.OrderItemProcessing
	} else if !domain.IsValidOrderItemStatus(in.Status) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown order item status %q", in.Status))
	}

	exists, err := s.items.Exists(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("check order item: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.shops.GetByID(ctx, in.ShopID); err != nil {
		return err
	}

	now := s.now()
	created, err := s.items.Create(ctx, &domain.ShopOrderItem{
		ID:               in.ID,
		ShopID:           in.ShopID,
		OrderID:          in.OrderID,
		ProductID:        in.ProductID,
		ProductVariation: in.ProductVariation,
		Quantity:         in.Quantity,
		Price:            in.Price,
		Status:           status,
		UserID:           in.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return fmt.Errorf("mirror order item: %w", err)
	}
	if created {
		s.logger.InfoContext(ctx, "order item mirrored",
			slog.String("order_item_id", in.ID),
			slog.String("shop_id", in.ShopID),
		)
	}
	return nil
}

// ApplyStatus copies a status change made in the order service. It returns
// apperrors.ErrNotFound when the item has not been mirrored.
func (s *OrderItemService) ApplyStatus(ctx context.Context, itemID, status string) error {
	if !domain.IsValidOrderItemStatus(status) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown order item status %q", status))
	}
	found, err := s.items.UpdateStatus(ctx, itemID, domain.OrderItemStatus(status))
	if err != nil {
		return fmt.Errorf("apply order item status: %w", err)
	}
	if !found {
		return apperrors.NotFound("order item", itemID)
	}
	return nil
}

// ownedShop checks that userID owns the live shop shopID.
func (s *OrderItemService) ownedShop(ctx context.Context, userID, shopID string) error {
	shop, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return err
	}
	if !shop.IsActive {
		return apperrors.NotFound("shop", shopID)
	}
	if !shop.OwnedBy(userID) {
		return apperrors.Forbidden("you do not have permission to view this shop's orders")
	}
	return nil
}

// List returns a page of the shop's order items to its owner.
func (s *OrderItemService) List(ctx context.Context, userID, shopID string, p pagination.Params) (pagination.Result[domain.ShopOrderItem], error) {
	if err := s.ownedShop(ctx, userID, shopID); err != nil {
		return pagination.Result[domain.ShopOrderItem]{}, err
	}
	items, total, err := s.items.ListByShop(ctx, shopID, p.PageSize, p.Offset())
	if err != nil {
		return pagination.Result[domain.ShopOrderItem]{}, fmt.Errorf("list order items: %w", err)
	}
	return pagination.NewResult(items, total, p), nil
}

// Get returns one of the shop's order items to its owner.
func (s *OrderItemService) Get(ctx context.Context, userID, shopID, itemID string) (*domain.ShopOrderItem, error) {
	if err := s.ownedShop(ctx, userID, shopID); err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ShopID != shopID {
		return nil, apperrors.NotFound("order item", itemID)
	}
	return item, nil
}

// UpdateStatus asks the order service to change an item's status and
// records the status it settled on.
func (s *OrderItemService) UpdateStatus(ctx context.Context, userID, shopID, itemID, status string) (*domain.ShopOrderItem, error) {
	if !domain.IsValidOrderItemStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order item status %q", status))
	}
	item, err := s.Get(ctx, userID, shopID, itemID)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.UpdateItemStatus(ctx, itemID, status)
	if err != nil {
		return nil, err
	}
	item.Status = domain.OrderItemStatus(updated.Status)
	item.UpdatedAt = s.now()
	if _, err := s.items.UpdateStatus(ctx, itemID, item.Status); err != nil {
		return nil, fmt.Errorf("record order item status: %w", err)
	}

	s.logger.InfoContext(ctx, "order item status updated",
		slog.String("order_item_id", itemID),
		slog.String("status", string(item.Status)),
	)
	return item, nil
}
