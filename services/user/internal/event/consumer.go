package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
)

// ShopEventsQueue is the queue the user service consumes.
const ShopEventsQueue = "user_shop_events"

// ShopOwners records shop ownership on user accounts.
type ShopOwners interface {
	MarkShopOwner(ctx context.Context, userID string) error
}

// Subscription returns the user service's shop event binding. Ownership
// updates are applied one at a time.
func Subscription() eventbus.Subscription {
	return eventbus.Subscription{
		Exchange: events.ShopExchange,
		Queue:    ShopEventsQueue,
		Bindings: []string{events.ShopCreated, events.ShopApproved},
		Prefetch: 1,
	}
}

// Consumer flags users as shop owners when their shop is created or approved.
type Consumer struct {
	owners ShopOwners
	seen   *eventbus.SeenSet
	logger *slog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(owners ShopOwners, logger *slog.Logger) *Consumer {
	return &Consumer{
		owners: owners,
		seen:   eventbus.NewSeenSet(10*time.Minute, 10000),
		logger: logger,
	}
}

// Run consumes the shop events queue until ctx is done.
func (c *Consumer) Run(ctx context.Context, sub eventbus.Subscriber) error {
	s := Subscription()
	return sub.Subscribe(ctx, s, eventbus.Dedupe(c.seen, s.Queue, shopKey, c.HandleShopEvent))
}

func shopKey(msg eventbus.Message) string {
	if msg.Key == "" {
		return ""
	}
	return msg.RoutingKey + ":" + msg.Key
}

// HandleShopEvent marks the shop's owner. Events for users this service
// does not know are skipped.
func (c *Consumer) HandleShopEvent(ctx context.Context, msg eventbus.Message) error {
	ev, err := events.Decode[events.ShopEvent](msg)
	if err != nil {
		return err
	}
	if ev.UserUUID == "" {
		return eventbus.Malformed(errors.New("user_uuid is missing"))
	}

	err = c.owners.MarkShopOwner(ctx, ev.UserUUID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		return eventbus.Malformed(err)
	case errors.Is(err, apperrors.ErrNotFound):
		return eventbus.Skip("user %s not found for shop %s", ev.UserUUID, ev.ShopID)
	default:
		return err
	}
}
