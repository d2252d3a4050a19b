package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

const itemColumns = `id, user_id, product_variation_id, product_id, shop_id, created_at`

const (
	insertItemSQL = `
		INSERT INTO wishlists (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteItemSQL = `
		DELETE FROM wishlists
		WHERE user_id = $1 AND product_variation_id = $2
		RETURNING ` + itemColumns

	countItemsSQL = `SELECT COUNT(*) FROM wishlists WHERE user_id = $1`

	listItemsSQL = `
		SELECT ` + itemColumns + `
		FROM wishlists
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	itemExistsSQL = `SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND product_variation_id = $2)`
)

const userVariationConstraint = "wishlists_user_variation_key"

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	pool database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool database.DBTX) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func scanItem(row pgx.Row) (*domain.WishlistItem, error) {
	var it domain.WishlistItem
	if err := row.Scan(&it.ID, &it.UserID, &it.ProductVariationID, &it.ProductID, &it.ShopID, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// Add inserts a variation into the user's wishlist.
func (r *WishlistRepository) Add(ctx context.Context, it *domain.WishlistItem) (err error) {
	ctx, end := database.TraceQuery(ctx, "AddWishlistItem", insertItemSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertItemSQL,
		it.ID, it.UserID, it.ProductVariationID, it.ProductID, it.ShopID, it.CreatedAt,
	)
	switch {
	case database.IsUniqueViolation(err, userVariationConstraint):
		return apperrors.AlreadyExists("wishlist item", "product_variation_id", it.ProductVariationID)
	case err != nil:
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return nil
}

// Remove deletes a variation from the user's wishlist.
func (r *WishlistRepository) Remove(ctx context.Context, userID, variationID string) (item *domain.WishlistItem, err error) {
	ctx, end := database.TraceQuery(ctx, "RemoveWishlistItem", deleteItemSQL)
	defer func() { end(err) }()

	item, err = scanItem(r.pool.QueryRow(ctx, deleteItemSQL, userID, variationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("wishlist item", variationID)
	}
	if err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	return item, nil
}

// List returns a page of wishlist items for the user and the total count.
func (r *WishlistRepository) List(ctx context.Context, userID string, limit, offset int) (items []domain.WishlistItem, total int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListWishlistItems", listItemsSQL)
	defer func() { end(err) }()

	if err := r.pool.QueryRow(ctx, countItemsSQL, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wishlist items: %w", err)
	}

	rows, err := r.pool.Query(ctx, listItemsSQL, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items = make([]domain.WishlistItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wishlist rows: %w", err)
	}
	return items, total, nil
}

// Exists checks whether a variation is in the user's wishlist.
func (r *WishlistRepository) Exists(ctx context.Context, userID, variationID string) (exists bool, err error) {
	ctx, end := database.TraceQuery(ctx, "WishlistItemExists", itemExistsSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, itemExistsSQL, userID, variationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check wishlist item exists: %w", err)
	}
	return exists, nil
}
