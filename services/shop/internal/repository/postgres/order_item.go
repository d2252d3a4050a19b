package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
)

const orderItemColumns = `id, shop_id, order_id, product_id, product_variation, quantity, price, status, user_id, created_at, updated_at`

const (
	orderItemExistsSQL = `SELECT EXISTS(SELECT 1 FROM shop_order_items WHERE id = $1)`

	insertOrderItemSQL = `
		INSERT INTO shop_order_items (` + orderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	getOrderItemSQL = `SELECT ` + orderItemColumns + ` FROM shop_order_items WHERE id = $1`

	listOrderItemsSQL = `
		SELECT ` + orderItemColumns + `, count(*) OVER() AS total_count
		FROM shop_order_items
		WHERE shop_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	updateOrderItemStatusSQL = `UPDATE shop_order_items SET status = $2, updated_at = $3 WHERE id = $1`
)

// OrderItemRepository implements repository.OrderItemRepository using
// PostgreSQL.
type OrderItemRepository struct {
	pool database.DBTX
	now  func() time.Time
}

// NewOrderItemRepository creates a new PostgreSQL-backed order item mirror.
func NewOrderItemRepository(pool database.DBTX) *OrderItemRepository {
	return &OrderItemRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func scanOrderItem(row pgx.Row, extra ...any) (*domain.ShopOrderItem, error) {
	var (
		it     domain.ShopOrderItem
		status string
	)
	dest := append([]any{
		&it.ID, &it.ShopID, &it.OrderID, &it.ProductID, &it.ProductVariation,
		&it.Quantity, &it.Price, &status, &it.UserID, &it.CreatedAt, &it.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	it.Status = domain.OrderItemStatus(status)
	return &it, nil
}

// Exists reports whether the item is mirrored.
func (r *OrderItemRepository) Exists(ctx context.Context, id string) (exists bool, err error) {
	ctx, end := database.TraceQuery(ctx, "OrderItemExists", orderItemExistsSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, orderItemExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check order item: %w", err)
	}
	return exists, nil
}

// Create inserts the item if it is not mirrored yet.
func (r *OrderItemRepository) Create(ctx context.Context, it *domain.ShopOrderItem) (created bool, err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrderItem", insertOrderItemSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, insertOrderItemSQL,
		it.ID, it.ShopID, it.OrderID, it.ProductID, it.ProductVariation,
		it.Quantity, it.Price, string(it.Status), it.UserID, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert order item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves one mirrored item.
func (r *OrderItemRepository) GetByID(ctx context.Context, id string) (it *domain.ShopOrderItem, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrderItem", getOrderItemSQL)
	defer func() { end(err) }()

	it, err = scanOrderItem(r.pool.QueryRow(ctx, getOrderItemSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("order item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order item: %w", err)
	}
	return it, nil
}

// ListByShop returns a page of a shop's items.
func (r *OrderItemRepository) ListByShop(ctx context.Context, shopID string, limit, offset int) (items []domain.ShopOrderItem, total int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrderItems", listOrderItemsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, shopID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items = make([]domain.ShopOrderItem, 0)
	for rows.Next() {
		it, err := scanOrderItem(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order item rows: %w", err)
	}
	return items, total, nil
}

// UpdateStatus sets an item's status.
func (r *OrderItemRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderItemStatus) (found bool, err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderItemStatus", updateOrderItemStatusSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateOrderItemStatusSQL, id, string(status), r.now())
	if err != nil {
		return false, fmt.Errorf("update order item status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
