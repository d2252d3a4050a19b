package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/database"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestUserRepository_Upsert(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := &domain.KnownUser{ID: userID, Email: "ann@example.com", Username: "ann", IsActive: true}

	mock.ExpectExec("INSERT INTO wishlist_users (.+) ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(userID, "ann@example.com", "ann", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Upsert(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Upsert_Error(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectExec("INSERT INTO wishlist_users").
		WithArgs(userID, "", "", false).
		WillReturnError(errors.New("connection refused"))

	err := repo.Upsert(context.Background(), &domain.KnownUser{ID: userID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert wishlist user")
}

func TestUserRepository_Exists(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectQuery("FROM wishlist_users WHERE id = \\$1 AND is_active").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, ok)
}
