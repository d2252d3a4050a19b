package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/shop/internal/service"
)

// OrderItemsQueue carries both order item event types so that a status
// change is never consumed ahead of the item it refers to.
const (
	OrderItemsQueue = "shop_order_items_queue"
	prefetch        = 10
)

// Subscriptions returns the queues the shop service consumes.
func Subscriptions() []eventbus.Subscription {
	return []eventbus.Subscription{
		{
			Exchange: events.OrderExchange,
			Queue:    OrderItemsQueue,
			Bindings: []string{events.OrderItemCreated, events.OrderItemStatusUpdated},
			Prefetch: prefetch,
		},
	}
}

// Consumer mirrors order items sold by local shops.
type Consumer struct {
	items  *service.OrderItemService
	seen   *eventbus.SeenSet
	logger *slog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(items *service.OrderItemService, logger *slog.Logger) *Consumer {
	return &Consumer{
		items:  items,
		seen:   eventbus.NewSeenSet(10*time.Minute, 10000),
		logger: logger,
	}
}

// Run consumes the order item queue until ctx is done.
func (c *Consumer) Run(ctx context.Context, sub eventbus.Subscriber) error {
	s := Subscriptions()[0]
	return sub.Subscribe(ctx, s, eventbus.Dedupe(c.seen, s.Queue, createdKey, c.Handle))
}

// createdKey dedupes creations only; status changes always apply.
func createdKey(msg eventbus.Message) string {
	if msg.Key == "" || msg.RoutingKey != events.OrderItemCreated {
		return ""
	}
	return msg.RoutingKey + ":" + msg.Key
}

// Handle routes a message by its routing key.
func (c *Consumer) Handle(ctx context.Context, msg eventbus.Message) error {
	switch msg.RoutingKey {
	case events.OrderItemCreated:
		return c.HandleItemCreated(ctx, msg)
	case events.OrderItemStatusUpdated:
		return c.HandleItemStatus(ctx, msg)
	default:
		c.logger.DebugContext(ctx, "ignoring order event", slog.String("routing_key", msg.RoutingKey))
		return nil
	}
}

// HandleItemCreated mirrors a new order item. Items of unknown shops are
// parked for inspection.
func (c *Consumer) HandleItemCreated(ctx context.Context, msg eventbus.Message) error {
	ev, err := events.Decode[events.OrderItemCreatedEvent](msg)
	if err != nil {
		return err
	}

	err = c.items.Mirror(ctx, service.MirrorInput{
		ID:               ev.OrderItemID,
		OrderID:          ev.OrderID,
		ShopID:           ev.ShopID,
		ProductID:        ev.ProductID,
		ProductVariation: ev.ProductVariation,
		Quantity:         ev.Quantity,
		Price:            ev.Price,
		Status:           ev.Status,
		UserID:           ev.UserID,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		return eventbus.Malformed(err)
	case errors.Is(err, apperrors.ErrNotFound):
		return eventbus.Skip("shop %s not found for order item %s", ev.ShopID, ev.OrderItemID)
	default:
		return err
	}
}

// HandleItemStatus copies a status change onto the mirrored item.
func (c *Consumer) HandleItemStatus(ctx context.Context, msg eventbus.Message) error {
	ev, err := events.Decode[events.OrderItemStatusUpdatedEvent](msg)
	if err != nil {
		return err
	}
	if ev.OrderItemID == "" {
		return eventbus.Malformed(errors.New("order_item_id is missing"))
	}

	err = c.items.ApplyStatus(ctx, ev.OrderItemID, ev.Status)
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return eventbus.Malformed(err)
	case errors.Is(err, apperrors.ErrNotFound):
		return eventbus.Skip("order item %s is not mirrored", ev.OrderItemID)
	default:
		return err
	}
}
