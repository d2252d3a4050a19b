package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
)

const variationColumns = `id, product_id, size, color, price, discount, amount_limit, is_active, created_at, updated_at`

const (
	insertVariationSQL = `
		INSERT INTO product_variations (` + variationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getVariationSQL = `SELECT ` + variationColumns + ` FROM product_variations WHERE id = $1`

	listVariationsSQL = `
		SELECT ` + variationColumns + `
		FROM product_variations
		WHERE product_id = $1
		ORDER BY price - LEAST(discount, price), created_at`

	updateVariationSQL = `
		UPDATE product_variations
		SET size = $2, color = $3, price = $4, discount = $5, amount_limit = $6, is_active = $7, updated_at = $8
		WHERE id = $1`

	deleteVariationSQL = `DELETE FROM product_variations WHERE id = $1`
)

const variationOptionConstraint = "product_variations_option_key"

// VariationRepository implements repository.VariationRepository using PostgreSQL.
type VariationRepository struct {
	pool database.DBTX
}

// NewVariationRepository creates a new PostgreSQL-backed variation repository.
func NewVariationRepository(pool database.DBTX) *VariationRepository {
	return &VariationRepository{pool: pool}
}

func scanVariation(row pgx.Row) (*domain.Variation, error) {
	var v domain.Variation
	err := row.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Price, &v.Discount,
		&v.AmountLimit, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionTaken(v *domain.Variation) error {
	return apperrors.AlreadyExists("variation", "size and color", v.Size+"/"+v.Color)
}

// Create inserts a new variation.
func (r *VariationRepository) Create(ctx context.Context, v *domain.Variation) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateVariation", insertVariationSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertVariationSQL,
		v.ID, v.ProductID, v.Size, v.Color, v.Price, v.Discount, v.AmountLimit, v.IsActive, v.CreatedAt, v.UpdatedAt,
	)
	if database.IsUniqueViolation(err, variationOptionConstraint) {
		return optionTaken(v)
	}
	if err != nil {
		return fmt.Errorf("insert variation: %w", err)
	}
	return nil
}

// GetByID retrieves a variation by id.
func (r *VariationRepository) GetByID(ctx context.Context, id string) (v *domain.Variation, err error) {
	ctx, end := database.TraceQuery(ctx, "GetVariation", getVariationSQL)
	defer func() { end(err) }()

	v, err = scanVariation(r.pool.QueryRow(ctx, getVariationSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("variation", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get variation: %w", err)
	}
	return v, nil
}

// ListByProduct returns a product's variations, cheapest first.
func (r *VariationRepository) ListByProduct(ctx context.Context, productID string) (out []domain.Variation, err error) {
	ctx, end := database.TraceQuery(ctx, "ListVariations", listVariationsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listVariationsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()

	out = make([]domain.Variation, 0)
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variation row: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variation rows: %w", err)
	}
	return out, nil
}

// Update modifies an existing variation.
func (r *VariationRepository) Update(ctx context.Context, v *domain.Variation) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateVariation", updateVariationSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateVariationSQL,
		v.ID, v.Size, v.Color, v.Price, v.Discount, v.AmountLimit, v.IsActive, v.UpdatedAt,
	)
	if database.IsUniqueViolation(err, variationOptionConstraint) {
		return optionTaken(v)
	}
	if err != nil {
		return fmt.Errorf("update variation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("variation", v.ID)
	}
	return nil
}

// Delete removes a variation.
func (r *VariationRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteVariation", deleteVariationSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, deleteVariationSQL, id)
	if err != nil {
		return fmt.Errorf("delete variation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("variation", id)
	}
	return nil
}
