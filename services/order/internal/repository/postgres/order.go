package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/order/internal/domain"
)

const (
	insertOrderSQL = `
		INSERT INTO orders (id, user_id, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	insertItemSQL = `
		INSERT INTO order_items (id, order_id, shop_id, product_id, product_variation, quantity, price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// selectOrdersSQL loads orders with their items in one round trip. The
	// caller appends the WHERE clause.
	selectOrdersSQL = `
		SELECT
			o.id, o.user_id, o.total_price, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'user_id', o.user_id,
						'shop_id', oi.shop_id,
						'product_id', oi.product_id,
						'product_variation', oi.product_variation,
						'quantity', oi.quantity,
						'price', oi.price,
						'status', oi.status,
						'created_at', oi.created_at,
						'updated_at', oi.updated_at
					) ORDER BY oi.created_at, oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items`

	getOrderSQL = selectOrdersSQL + `
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.id = $1
		GROUP BY o.id`

	listOrdersSQL = selectOrdersSQL + `,
			count(*) OVER() AS total_count
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`

	getItemSQL = `
		SELECT oi.id, oi.order_id, o.user_id, oi.shop_id, oi.product_id, oi.product_variation,
		       oi.quantity, oi.price, oi.status, oi.created_at, oi.updated_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.id = $1`

	updateItemStatusSQL = `UPDATE order_items SET status = $2, updated_at = $3 WHERE id = $1`
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderSQL)
	defer func() { end(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrderSQL, o.ID, o.UserID, o.TotalPrice, o.CreatedAt, o.UpdatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, item := range o.Items {
			_, err := tx.Exec(ctx, insertItemSQL,
				item.ID,
				item.OrderID,
				item.ShopID,
				item.ProductID,
				item.ProductVariation,
				item.Quantity,
				item.Price,
				item.Status,
				item.CreatedAt,
				item.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

func scanOrder(row pgx.Row, extra ...any) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)
	dest := append([]any{&o.ID, &o.UserID, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt, &itemsJSON}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return &o, nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (o *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrder", getOrderSQL)
	defer func() { end(err) }()

	o, err = scanOrder(r.pool.QueryRow(ctx, getOrderSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListByUser returns the user's orders with the total count.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) (orders []domain.Order, total int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrders", listOrdersSQL)
	defer func() { end(err) }()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID, limit, max(offset, 0))
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, total, nil
}

// GetItem retrieves one order item together with the buyer's id.
func (r *OrderRepository) GetItem(ctx context.Context, id string) (item *domain.OrderItem, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrderItem", getItemSQL)
	defer func() { end(err) }()

	var it domain.OrderItem
	err = r.pool.QueryRow(ctx, getItemSQL, id).Scan(
		&it.ID,
		&it.OrderID,
		&it.UserID,
		&it.ShopID,
		&it.ProductID,
		&it.ProductVariation,
		&it.Quantity,
		&it.Price,
		&it.Status,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("order item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order item: %w", err)
	}
	return &it, nil
}

// UpdateItemStatus sets the status of an order item.
func (r *OrderRepository) UpdateItemStatus(ctx context.Context, id string, status domain.ItemStatus, at time.Time) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderItemStatus", updateItemStatusSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateItemStatusSQL, id, status, at)
	if err != nil {
		return fmt.Errorf("update order item status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order item", id)
	}
	return nil
}
