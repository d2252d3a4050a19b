package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
	"github.com/utafrali/shopmesh/services/product/internal/repository"
)

const productColumns = `id, shop_id, title, about, sku, on_sale, is_active, top_sale, top_popular, created_at, updated_at`

const (
	insertProductSQL = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	updateProductSQL = `
		UPDATE products
		SET title = $2, about = $3, sku = $4, on_sale = $5, is_active = $6,
		    top_sale = $7, top_popular = $8, updated_at = $9
		WHERE id = $1`

	deleteProductVariationsSQL = `DELETE FROM product_variations WHERE product_id = $1 RETURNING id`
	deleteProductSQL           = `DELETE FROM products WHERE id = $1`
)

const skuConstraint = "products_sku_key"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row, extra ...any) (*domain.Product, error) {
	var p domain.Product
	dest := append([]any{
		&p.ID, &p.ShopID, &p.Title, &p.About, &p.SKU, &p.OnSale, &p.IsActive,
		&p.TopSale, &p.TopPopular, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateProduct", insertProductSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.ShopID, p.Title, p.About, p.SKU, p.OnSale, p.IsActive,
		p.TopSale, p.TopPopular, p.CreatedAt, p.UpdatedAt,
	)
	if database.IsUniqueViolation(err, skuConstraint) {
		return apperrors.AlreadyExists("product", "sku", p.SKU)
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "GetProduct", getProductSQL)
	defer func() { end(err) }()

	p, err = scanProduct(r.pool.QueryRow(ctx, getProductSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.ShopID != nil {
		conditions = append(conditions, fmt.Sprintf("shop_id = $%d", argIndex))
		args = append(args, *filter.ShopID)
		argIndex++
	}
	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR about ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}
	if filter.OnSale != nil {
		conditions = append(conditions, fmt.Sprintf("on_sale = $%d", argIndex))
		args = append(args, *filter.OnSale)
		argIndex++
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, max(filter.Offset, 0))

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateProduct", updateProductSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.About, p.SKU, p.OnSale, p.IsActive, p.TopSale, p.TopPopular, p.UpdatedAt,
	)
	if database.IsUniqueViolation(err, skuConstraint) {
		return apperrors.AlreadyExists("product", "sku", p.SKU)
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product and its variations in one transaction.
func (r *ProductRepository) Delete(ctx context.Context, id string) (variationIDs []string, err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteProduct", deleteProductSQL)
	defer func() { end(err) }()

	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, deleteProductVariationsSQL, id)
		if err != nil {
			return fmt.Errorf("delete variations: %w", err)
		}
		variationIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect variation ids: %w", err)
		}

		tag, err := tx.Exec(ctx, deleteProductSQL, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("product", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return variationIDs, nil
}
