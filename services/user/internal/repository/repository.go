package repository

import (
	"context"

	"github.com/utafrali/shopmesh/services/user/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A taken email or username is reported as
	// apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update persists the profile fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// SetShopOwner flags the user as a shop owner. It reports whether the
	// flag changed; an unknown id is apperrors.ErrNotFound.
	SetShopOwner(ctx context.Context, id string) (bool, error)
}
