package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopmesh/pkg/clients"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
	"github.com/utafrali/shopmesh/services/wishlist/internal/repository"
)

// Catalog resolves variations and their products.
type Catalog interface {
	GetVariation(ctx context.Context, id string) (*clients.Variation, error)
	GetProduct(ctx context.Context, id string) (*clients.Product, error)
}

// WishlistEvents publishes wishlist events.
type WishlistEvents interface {
	WishlistCreated(ctx context.Context, item *domain.WishlistItem)
	WishlistDeleted(ctx context.Context, item *domain.WishlistItem)
}

// WishlistService keeps per-user wishlists of product variations. Only
// users announced by the user service may write.
type WishlistService struct {
	items   repository.WishlistRepository
	users   repository.UserRepository
	catalog Catalog
	events  WishlistEvents
	logger  *slog.Logger
	now     func() time.Time
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(
	items repository.WishlistRepository,
	users repository.UserRepository,
	catalog Catalog,
	ev WishlistEvents,
	logger *slog.Logger,
) *WishlistService {
	return &WishlistService{
		items:   items,
		users:   users,
		catalog: catalog,
		events:  ev,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *WishlistService) requireKnownUser(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return apperrors.Forbidden("user is not registered with the wishlist service")
	}
	return nil
}

// Add saves a variation to the caller's wishlist. The variation's product
// and shop are resolved through the product service.
func (s *WishlistService) Add(ctx context.Context, userID, variationID string) (*domain.WishlistItem, error) {
	if err := s.requireKnownUser(ctx, userID); err != nil {
		return nil, err
	}

	v, err := s.catalog.GetVariation(ctx, variationID)
	if err != nil {
		return nil, unavailable(err, "product variation", variationID)
	}
	if !v.IsActive {
		return nil, apperrors.InvalidInput(fmt.Sprintf("product variation %s is not available", variationID))
	}
	p, err := s.catalog.GetProduct(ctx, v.ProductID)
	if err != nil {
		return nil, unavailable(err, "product", v.ProductID)
	}

	item := &domain.WishlistItem{
		ID:                 uuid.New().String(),
		UserID:             userID,
		ProductVariationID: v.ID,
		ProductID:          p.ID,
		ShopID:             p.ShopID,
		CreatedAt:          s.now(),
	}
	if err := s.items.Add(ctx, item); err != nil {
		return nil, err
	}

	s.events.WishlistCreated(ctx, item)
	return item, nil
}

func unavailable(err error, kind, id string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.InvalidInput(fmt.Sprintf("%s %s does not exist", kind, id))
	}
	return err
}

// Remove deletes a variation from the caller's wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, variationID string) error {
	if err := s.requireKnownUser(ctx, userID); err != nil {
		return err
	}
	item, err := s.items.Remove(ctx, userID, variationID)
	if err != nil {
		return err
	}
	s.events.WishlistDeleted(ctx, item)
	return nil
}

// List returns a page of the caller's wishlist, newest first.
func (s *WishlistService) List(ctx context.Context, userID string, p pagination.Params) (pagination.Result[domain.WishlistItem], error) {
	if userID == "" {
		return pagination.Result[domain.WishlistItem]{}, apperrors.Unauthorized("authentication required")
	}
	items, total, err := s.items.List(ctx, userID, p.PageSize, p.Offset())
	if err != nil {
		return pagination.Result[domain.WishlistItem]{}, fmt.Errorf("list wishlist: %w", err)
	}
	return pagination.NewResult(items, total, p), nil
}

// Contains reports whether the variation is on the caller's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID, variationID string) (bool, error) {
	if userID == "" {
		return false, apperrors.Unauthorized("authentication required")
	}
	return s.items.Exists(ctx, userID, variationID)
}

// RegisterUser records a user announced by the user service. Replays
// overwrite the stored copy.
func (s *WishlistService) RegisterUser(ctx context.Context, u domain.KnownUser) error {
	if _, err := uuid.Parse(u.ID); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("user id %q is not a uuid", u.ID))
	}
	if err := s.users.Upsert(ctx, &u); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "wishlist user registered", slog.String("user_id", u.ID))
	return nil
}
