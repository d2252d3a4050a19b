package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/order/internal/domain"
)

var (
	testNow     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orderCols   = []string{"id", "user_id", "total_price", "created_at", "updated_at", "items"}
	itemColumns = []string{
		"id", "order_id", "user_id", "shop_id", "product_id", "product_variation",
		"quantity", "price", "status", "created_at", "updated_at",
	}
)

const itemsJSON = `[{"id":"i1","order_id":"o1","user_id":"u1","shop_id":"s1","product_id":"p1",` +
	`"product_variation":"v1","quantity":2,"price":1500,"status":"processing",` +
	`"created_at":"2026-03-01T12:00:00+00:00","updated_at":"2026-03-01T12:00:00+00:00"}]`

func newTestRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewOrderRepository(mock), mock
}

func sampleOrder() *domain.Order {
	item := domain.OrderItem{
		ID:               "i1",
		OrderID:          "o1",
		UserID:           "u1",
		ShopID:           "s1",
		ProductID:        "p1",
		ProductVariation: "v1",
		Quantity:         2,
		Price:            1500,
		Status:           domain.ItemStatusProcessing,
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	}
	return &domain.Order{
		ID:         "o1",
		UserID:     "u1",
		TotalPrice: 3000,
		Items:      []domain.OrderItem{item},
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}

func TestOrderRepository_Create(t *testing.T) {
	repo, mock := newTestRepo(t)
	o := sampleOrder()
	it := o.Items[0]

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.UserID, o.TotalPrice, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(it.ID, it.OrderID, it.ShopID, it.ProductID, it.ProductVariation, it.Quantity, it.Price,
			it.Status, it.CreatedAt, it.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemFailureRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").WillReturnError(errors.New("check violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders o LEFT JOIN order_items oi (.+) WHERE o.id = \\$1").
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow("o1", "u1", int64(3000), testNow, testNow, []byte(itemsJSON)))

	o, err := repo.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), o.TotalPrice)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "v1", o.Items[0].ProductVariation)
	assert.Equal(t, domain.ItemStatusProcessing, o.Items[0].Status)
	assert.True(t, o.Items[0].CreatedAt.Equal(testNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NoItems(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM orders o").
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow("o1", "u1", int64(0), testNow, testNow, []byte(`[]`)))

	o, err := repo.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.NotNil(t, o.Items)
	assert.Empty(t, o.Items)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM orders o").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(orderCols))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOrderRepository_ListByUser(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("WHERE o.user_id = \\$1 (.+) ORDER BY o.created_at DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs("u1", 10, 20).
		WillReturnRows(pgxmock.NewRows(append(orderCols, "total_count")).
			AddRow("o1", "u1", int64(3000), testNow, testNow, []byte(itemsJSON), 21))

	orders, total, err := repo.ListByUser(context.Background(), "u1", 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ListByUser_DefaultLimit(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM orders o").
		WithArgs("u1", 20, 0).
		WillReturnRows(pgxmock.NewRows(append(orderCols, "total_count")))

	orders, total, err := repo.ListByUser(context.Background(), "u1", 0, -5)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestOrderRepository_GetItem(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM order_items oi JOIN orders o").
		WithArgs("i1").
		WillReturnRows(pgxmock.NewRows(itemColumns).
			AddRow("i1", "o1", "u1", "s1", "p1", "v1", 2, int64(1500), domain.ItemStatusShipped, testNow, testNow))

	it, err := repo.GetItem(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "u1", it.UserID)
	assert.Equal(t, domain.ItemStatusShipped, it.Status)
	assert.Equal(t, int64(3000), it.LineTotal())
}

func TestOrderRepository_GetItem_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM order_items").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(itemColumns))

	_, err := repo.GetItem(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOrderRepository_UpdateItemStatus(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE order_items SET status").
		WithArgs("i1", domain.ItemStatusShipped, testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE order_items SET status").
		WithArgs("missing", domain.ItemStatusShipped, testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateItemStatus(context.Background(), "i1", domain.ItemStatusShipped, testNow))
	err := repo.UpdateItemStatus(context.Background(), "missing", domain.ItemStatusShipped, testNow)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
