package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
)

const shopColumns = `id, name, slug, about, user_id, status, is_active, created_at, updated_at`

const (
	insertShopSQL = `
		INSERT INTO shops (` + shopColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getShopByIDSQL   = `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`
	getShopBySlugSQL = `SELECT ` + shopColumns + ` FROM shops WHERE slug = $1`
	getShopByUserSQL = `SELECT ` + shopColumns + ` FROM shops WHERE user_id = $1 AND is_active`

	listPublicShopsSQL = `
		SELECT ` + shopColumns + `, count(*) OVER() AS total_count
		FROM shops
		WHERE is_active AND status = 'approved'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	updateShopSQL = `
		UPDATE shops
		SET name = $2, slug = $3, about = $4, status = $5, is_active = $6, updated_at = $7
		WHERE id = $1`
)

// Constraint names from the migrations.
const (
	slugConstraint       = "shops_slug_key"
	userActiveConstraint = "shops_user_active_key"
)

// ShopRepository implements repository.ShopRepository using PostgreSQL.
type ShopRepository struct {
	pool database.DBTX
}

// NewShopRepository creates a new PostgreSQL-backed shop repository.
func NewShopRepository(pool database.DBTX) *ShopRepository {
	return &ShopRepository{pool: pool}
}

func scanShop(row pgx.Row, extra ...any) (*domain.Shop, error) {
	var (
		s      domain.Shop
		status string
	)
	dest := append([]any{
		&s.ID, &s.Name, &s.Slug, &s.About, &s.UserID, &status, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.Status = domain.ShopStatus(status)
	return &s, nil
}

// Create inserts a new shop.
func (r *ShopRepository) Create(ctx context.Context, s *domain.Shop) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateShop", insertShopSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertShopSQL,
		s.ID, s.Name, s.Slug, s.About, s.UserID, string(s.Status), s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	switch {
	case database.IsUniqueViolation(err, slugConstraint):
		return apperrors.AlreadyExists("shop", "slug", s.Slug)
	case database.IsUniqueViolation(err, userActiveConstraint):
		return apperrors.AlreadyExists("shop", "user", s.UserID)
	case err != nil:
		return fmt.Errorf("insert shop: %w", err)
	}
	return nil
}

func (r *ShopRepository) getOne(ctx context.Context, op, query, key string) (shop *domain.Shop, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	shop, err = scanShop(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("shop", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return shop, nil
}

// GetByID retrieves a shop by id.
func (r *ShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	return r.getOne(ctx, "GetShopByID", getShopByIDSQL, id)
}

// GetBySlug retrieves a shop by slug.
func (r *ShopRepository) GetBySlug(ctx context.Context, slug string) (*domain.Shop, error) {
	return r.getOne(ctx, "GetShopBySlug", getShopBySlugSQL, slug)
}

// GetByUser returns the user's live shop.
func (r *ShopRepository) GetByUser(ctx context.Context, userID string) (*domain.Shop, error) {
	return r.getOne(ctx, "GetShopByUser", getShopByUserSQL, userID)
}

// ListPublic returns approved, active shops.
func (r *ShopRepository) ListPublic(ctx context.Context, limit, offset int) (shops []domain.Shop, total int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListPublicShops", listPublicShopsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listPublicShopsSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	shops = make([]domain.Shop, 0)
	for rows.Next() {
		s, err := scanShop(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan shop row: %w", err)
		}
		shops = append(shops, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate shop rows: %w", err)
	}
	return shops, total, nil
}

// Update persists the mutable fields of a shop.
func (r *ShopRepository) Update(ctx context.Context, s *domain.Shop) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateShop", updateShopSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateShopSQL,
		s.ID, s.Name, s.Slug, s.About, string(s.Status), s.IsActive, s.UpdatedAt,
	)
	if database.IsUniqueViolation(err, slugConstraint) {
		return apperrors.AlreadyExists("shop", "slug", s.Slug)
	}
	if err != nil {
		return fmt.Errorf("update shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("shop", s.ID)
	}
	return nil
}
