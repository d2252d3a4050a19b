package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/user/internal/domain"
	"github.com/utafrali/shopmesh/services/user/internal/repository"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// errBadCredentials is returned for every failed login so callers cannot
// tell which half of the pair was wrong.
var errBadCredentials = apperrors.Unauthorized("invalid credentials")

// UserEvents publishes user events.
type UserEvents interface {
	UserCreated(ctx context.Context, u *domain.User)
}

// UserService implements registration, credential checks and profiles.
type UserService struct {
	users      repository.UserRepository
	events     UserEvents
	bcryptCost int
	dummyHash  []byte
	logger     *slog.Logger
	now        func() time.Time
}

// NewUserService creates a new user service. bcryptCost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewUserService(users repository.UserRepository, ev UserEvents, bcryptCost int, logger *slog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// Unknown accounts are checked against this hash.
	dummy, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	return &UserService{
		users:      users,
		events:     ev,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput identifies a user by email or username.
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// UpdateProfileInput holds the profile fields a user may change. Nil fields
// are left untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// Register creates an active account and publishes user.created.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.events.UserCreated(ctx, user)
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks credentials and returns the matching active user.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*domain.User, error) {
	if in.Password == "" || (in.Email == "" && in.Username == "") {
		return nil, apperrors.InvalidInput("email or username and password are required")
	}

	var (
		user *domain.User
		err  error
	)
	if in.Email != "" {
		user, err = s.users.GetByEmail(ctx, domain.NormalizeEmail(in.Email))
	} else {
		user, err = s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	}
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, errBadCredentials
	case err != nil:
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}
	return user, nil
}

// GetProfile returns the caller's account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the caller's name fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// MarkShopOwner records that userID now owns a shop. Repeated calls are
// no-ops; an unknown user is apperrors.ErrNotFound.
func (s *UserService) MarkShopOwner(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("user id %q is not a uuid", userID))
	}
	changed, err := s.users.SetShopOwner(ctx, userID)
	if err != nil {
		return err
	}
	if changed {
		s.logger.InfoContext(ctx, "user became a shop owner", slog.String("user_id", userID))
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one letter and one digit")
	}
	return nil
}

