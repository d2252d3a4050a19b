package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
)

var variationCols = []string{
	"id", "product_id", "size", "color", "price", "discount", "amount_limit", "is_active", "created_at", "updated_at",
}

func sampleVariation() *domain.Variation {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Variation{
		ID:          "5c6d7e8f-9a0b-4c1d-8e2f-3a4b5c6d7e8f",
		ProductID:   "8d1f2c3b-4a5e-4f60-9b7c-1d2e3f4a5b6c",
		Size:        "42",
		Color:       "red",
		Price:       4999,
		Discount:    500,
		AmountLimit: 3,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func variationRow(v *domain.Variation) []any {
	return []any{v.ID, v.ProductID, v.Size, v.Color, v.Price, v.Discount, v.AmountLimit, v.IsActive, v.CreatedAt, v.UpdatedAt}
}

func TestVariationRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewVariationRepository(mock)
	v := sampleVariation()

	mock.ExpectExec("INSERT INTO product_variations").
		WithArgs(v.ID, v.ProductID, "42", "red", int64(4999), int64(500), 3, true, v.CreatedAt, v.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariationRepository_Create_DuplicateOption(t *testing.T) {
	mock := newMock(t)
	repo := NewVariationRepository(mock)

	mock.ExpectExec("INSERT INTO product_variations").
		WillReturnError(&pgconn.PgError{Code: database.UniqueViolation, ConstraintName: "product_variations_option_key"})

	err := repo.Create(context.Background(), sampleVariation())
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestVariationRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewVariationRepository(mock)
	v := sampleVariation()

	mock.ExpectQuery("FROM product_variations WHERE id = \\$1").
		WithArgs(v.ID).
		WillReturnRows(pgxmock.NewRows(variationCols).AddRow(variationRow(v)...))

	got, err := repo.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, got)
	assert.Equal(t, int64(4499), got.UnitPrice())
}

func TestVariationRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewVariationRepository(mock)

	mock.ExpectQuery("FROM product_variations").WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestVariationRepository_ListByProduct(t *testing.T) {
	mock := newMock(t)
	repo := NewVariationRepository(mock)
	a, b := sampleVariation(), sampleVariation()
	b.ID, b.Size = "6d7e8f9a-0b1c-4d2e-8f3a-4b5c6d7e8f9a", "43"

	mock.ExpectQuery("WHERE product_id = \\$1").
		WithArgs(a.ProductID).
		WillReturnRows(pgxmock.NewRows(variationCols).AddRow(variationRow(a)...).AddRow(variationRow(b)...))

	got, err := repo.ListByProduct(context.Background(), a.ProductID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "43", got[1].Size)
}

func TestVariationRepository_UpdateAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewVariationRepository(mock)
	v := sampleVariation()

	mock.ExpectExec("UPDATE product_variations").
		WithArgs(v.ID, v.Size, v.Color, v.Price, v.Discount, v.AmountLimit, v.IsActive, v.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM product_variations").
		WithArgs(v.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Update(context.Background(), v))
	err := repo.Delete(context.Background(), v.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
