package event

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

// UserEventsQueue is the queue the wishlist service consumes.
const UserEventsQueue = "wishlist_user_events"

// UserRegistry records users announced by the user service.
type UserRegistry interface {
	RegisterUser(ctx context.Context, u domain.KnownUser) error
}

// Subscription returns the wishlist service's user event binding.
func Subscription() eventbus.Subscription {
	return eventbus.Subscription{
		Exchange: events.UserExchange,
		Queue:    UserEventsQueue,
		Bindings: []string{events.UserCreated},
		Prefetch: 10,
	}
}

// Consumer records newly created users.
type Consumer struct {
	users  UserRegistry
	logger *slog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(users UserRegistry, logger *slog.Logger) *Consumer {
	return &Consumer{users: users, logger: logger}
}

// Run consumes the user events queue until ctx is done. The upsert is
// idempotent, so redeliveries are applied again.
func (c *Consumer) Run(ctx context.Context, sub eventbus.Subscriber) error {
	return sub.Subscribe(ctx, Subscription(), c.HandleUserCreated)
}

// HandleUserCreated upserts the announced user.
func (c *Consumer) HandleUserCreated(ctx context.Context, msg eventbus.Message) error {
	ev, err := events.Decode[events.UserCreatedEvent](msg)
	if err != nil {
		return err
	}
	if ev.UserUUID == "" {
		return eventbus.Malformed(errors.New("user_uuid is missing"))
	}

	err = c.users.RegisterUser(ctx, domain.KnownUser{
		ID:       ev.UserUUID,
		Email:    ev.Email,
		Username: ev.Username,
		IsActive: ev.IsActive,
	})
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return eventbus.Malformed(err)
	}
	return err
}
