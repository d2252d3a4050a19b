package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/pagination"
	"github.com/utafrali/shopmesh/pkg/slug"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
	"github.com/utafrali/shopmesh/services/shop/internal/repository"
)

// ShopEvents publishes shop lifecycle events.
type ShopEvents interface {
	ShopCreated(ctx context.Context, s *domain.Shop) bool
	ShopApproved(ctx context.Context, s *domain.Shop) bool
	ShopUpdated(ctx context.Context, s *domain.Shop) bool
	ShopDeleted(ctx context.Context, s *domain.Shop) bool
}

// ShopService implements the business logic for shop operations.
type ShopService struct {
	repo   repository.ShopRepository
	events ShopEvents
	admins map[string]struct{}
	logger *slog.Logger
	now    func() time.Time
}

// NewShopService creates a new shop service. adminIDs may approve shops.
func NewShopService(repo repository.ShopRepository, ev ShopEvents, adminIDs []string, logger *slog.Logger) *ShopService {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}
	return &ShopService{
		repo:   repo,
		events: ev,
		admins: admins,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateShopInput holds the parameters for creating a shop.
type CreateShopInput struct {
	Name  string
	About string
}

// UpdateShopInput holds the fields a shop owner may change.
type UpdateShopInput struct {
	Name  *string
	About *string
}

// CreateShop opens a pending shop for userID. A user owns at most one live
// shop.
func (s *ShopService) CreateShop(ctx context.Context, userID string, in CreateShopInput) (*domain.Shop, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication credentials were not provided")
	}
	name := strings.TrimSpace(in.Name)
	base := slug.Generate(name)
	if base == "" {
		return nil, apperrors.InvalidInput("shop name must contain letters or digits")
	}

	if _, err := s.repo.GetByUser(ctx, userID); err == nil {
		return nil, apperrors.Conflict("you already have a shop")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing shop: %w", err)
	}

	now := s.now()
	shop := &domain.Shop{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      base,
		About:     strings.TrimSpace(in.About),
		UserID:    userID,
		Status:    domain.ShopStatusPending,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.Create(ctx, shop)
	if isSlugTaken(err) {
		shop.Slug = slug.WithSuffix(name)
		err = s.repo.Create(ctx, shop)
	}
	if err != nil {
		return nil, fmt.Errorf("create shop: %w", err)
	}

	s.events.ShopCreated(ctx, shop)
	s.logger.InfoContext(ctx, "shop created",
		slog.String("shop_id", shop.ID),
		slog.String("slug", shop.Slug),
		slog.String("user_id", userID),
	)
	return shop, nil
}

func isSlugTaken(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && errors.Is(err, apperrors.ErrAlreadyExists) && strings.Contains(appErr.Message, "slug")
}

// GetShop returns a public shop by id or slug.
func (s *ShopService) GetShop(ctx context.Context, idOrSlug string) (*domain.Shop, error) {
	var (
		shop *domain.Shop
		err  error
	)
	if _, perr := uuid.Parse(idOrSlug); perr == nil {
		shop, err = s.repo.GetByID(ctx, idOrSlug)
	} else {
		shop, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if !shop.IsPublic() {
		return nil, apperrors.NotFound("shop", idOrSlug)
	}
	return shop, nil
}

// ListShops returns a page of public shops.
func (s *ShopService) ListShops(ctx context.Context, p pagination.Params) (pagination.Result[domain.Shop], error) {
	shops, total, err := s.repo.ListPublic(ctx, p.PageSize, p.Offset())
	if err != nil {
		return pagination.Result[domain.Shop]{}, fmt.Errorf("list shops: %w", err)
	}
	return pagination.NewResult(shops, total, p), nil
}

// GetUserShop returns the public shop owned by userID.
func (s *ShopService) GetUserShop(ctx context.Context, userID string) (*domain.Shop, error) {
	shop, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !shop.IsPublic() {
		return nil, apperrors.NotFound("shop of user", userID)
	}
	return shop, nil
}

// owned loads a live shop and checks that userID owns it.
func (s *ShopService) owned(ctx context.Context, userID, shopID string) (*domain.Shop, error) {
	shop, err := s.repo.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, apperrors.NotFound("shop", shopID)
	}
	if !shop.OwnedBy(userID) {
		return nil, apperrors.Forbidden("you do not have permission to manage this shop")
	}
	return shop, nil
}

// UpdateShop applies an owner's changes. The slug is kept stable.
func (s *ShopService) UpdateShop(ctx context.Context, userID, shopID string, in UpdateShopInput) (*domain.Shop, error) {
	shop, err := s.owned(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if slug.Generate(name) == "" {
			return nil, apperrors.InvalidInput("shop name must contain letters or digits")
		}
		shop.Name = name
	}
	if in.About != nil {
		shop.About = strings.TrimSpace(*in.About)
	}
	shop.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("update shop: %w", err)
	}
	s.events.ShopUpdated(ctx, shop)
	return shop, nil
}

// DeleteShop soft-deletes an owner's shop.
func (s *ShopService) DeleteShop(ctx context.Context, userID, shopID string) error {
	shop, err := s.owned(ctx, userID, shopID)
	if err != nil {
		return err
	}
	shop.IsActive = false
	shop.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, shop); err != nil {
		return fmt.Errorf("delete shop: %w", err)
	}
	s.events.ShopDeleted(ctx, shop)
	s.logger.InfoContext(ctx, "shop deleted", slog.String("shop_id", shop.ID))
	return nil
}

// ApproveShop marks a pending shop approved. Only administrators may do so.
// Approving an approved shop is a no-op.
func (s *ShopService) ApproveShop(ctx context.Context, adminID, shopID string) (*domain.Shop, error) {
	if _, ok := s.admins[adminID]; !ok {
		return nil, apperrors.Forbidden("only administrators can approve shops")
	}
	shop, err := s.repo.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, apperrors.NotFound("shop", shopID)
	}
	if shop.Status == domain.ShopStatusApproved {
		return shop, nil
	}

	shop.Status = domain.ShopStatusApproved
	shop.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("approve shop: %w", err)
	}
	s.events.ShopApproved(ctx, shop)
	s.logger.InfoContext(ctx, "shop approved",
		slog.String("shop_id", shop.ID),
		slog.String("user_id", shop.UserID),
	)
	return shop, nil
}
