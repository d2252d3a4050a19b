package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/shopmesh/pkg/database"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

const (
	upsertUserSQL = `
		INSERT INTO wishlist_users (id, email, username, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, username = EXCLUDED.username,
		    is_active = EXCLUDED.is_active, updated_at = NOW()`

	userExistsSQL = `SELECT EXISTS(SELECT 1 FROM wishlist_users WHERE id = $1 AND is_active)`
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed known-user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert records u, refreshing the stored copy if it exists.
func (r *UserRepository) Upsert(ctx context.Context, u *domain.KnownUser) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertWishlistUser", upsertUserSQL)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, upsertUserSQL, u.ID, u.Email, u.Username, u.IsActive); err != nil {
		return fmt.Errorf("upsert wishlist user: %w", err)
	}
	return nil
}

// Exists reports whether id belongs to an active known user.
func (r *UserRepository) Exists(ctx context.Context, id string) (exists bool, err error) {
	ctx, end := database.TraceQuery(ctx, "WishlistUserExists", userExistsSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, userExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check wishlist user: %w", err)
	}
	return exists, nil
}
