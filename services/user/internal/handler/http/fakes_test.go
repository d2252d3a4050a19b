package http

import (
	"context"
	"sync"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/services/user/internal/domain"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]domain.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		if existing.Username == u.Username {
			return apperrors.AlreadyExists("user", "username", u.Username)
		}
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) find(match func(domain.User) bool, key string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", key)
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.ID == id }, id)
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Email == email }, email)
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Username == username }, username)
}

func (f *fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID)
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) SetShopOwner(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return false, apperrors.NotFound("user", id)
	}
	changed := !u.IsShopOwner
	u.IsShopOwner = true
	f.users[id] = u
	return changed, nil
}

type nopEvents struct{}

func (nopEvents) UserCreated(context.Context, *domain.User) {}
