package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopmesh/pkg/database"
	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/user/internal/domain"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, is_active, is_shop_owner, created_at, updated_at`

const (
	insertUserSQL = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	updateUserSQL = `
		UPDATE users
		SET first_name = $2, last_name = $3, updated_at = $4
		WHERE id = $1`

	// The RETURNING row distinguishes "already an owner" from "no such user".
	setShopOwnerSQL = `
		WITH target AS (SELECT id, is_shop_owner FROM users WHERE id = $1),
		     upd AS (
		         UPDATE users SET is_shop_owner = TRUE, updated_at = NOW()
		         WHERE id = $1 AND NOT is_shop_owner
		         RETURNING id
		     )
		SELECT EXISTS (SELECT 1 FROM upd) FROM target`
)

// Constraint names from the migrations.
const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateUser", insertUserSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertUserSQL,
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
		u.IsActive, u.IsShopOwner, u.CreatedAt, u.UpdatedAt,
	)
	switch {
	case database.IsUniqueViolation(err, emailConstraint):
		return apperrors.AlreadyExists("user", "email", u.Email)
	case database.IsUniqueViolation(err, usernameConstraint):
		return apperrors.AlreadyExists("user", "username", u.Username)
	case err != nil:
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, op, query, key string) (user *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var u domain.User
	err = r.pool.QueryRow(ctx, query, key).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsShopOwner, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByID", getUserByIDSQL, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByEmail", getUserByEmailSQL, email)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByUsername", getUserByUsernameSQL, username)
}

// Update writes the profile fields of u.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateUser", updateUserSQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, updateUserSQL, u.ID, u.FirstName, u.LastName, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// SetShopOwner marks the user as a shop owner.
func (r *UserRepository) SetShopOwner(ctx context.Context, id string) (changed bool, err error) {
	ctx, end := database.TraceQuery(ctx, "SetShopOwner", setShopOwnerSQL)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, setShopOwnerSQL, id).Scan(&changed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperrors.NotFound("user", id)
	}
	if err != nil {
		return false, fmt.Errorf("set shop owner: %w", err)
	}
	return changed, nil
}
