// Package event publishes order events.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/order/internal/domain"
)

// SourceOrderService identifies events originating from this service.
const SourceOrderService = "order-service"

// Producer publishes order domain events. Publishing is best effort.
type Producer struct {
	emitter *events.Emitter
}

// NewProducer creates a producer on publisher.
func NewProducer(publisher eventbus.Publisher, logger *slog.Logger) *Producer {
	return &Producer{emitter: events.NewEmitter(publisher, SourceOrderService, logger)}
}

// OrderCreated publishes order.created.
func (p *Producer) OrderCreated(ctx context.Context, o *domain.Order) {
	p.emitter.Emit(ctx, events.OrderExchange, events.OrderCreated, o.ID, events.OrderCreatedEvent{
		EventType:  events.OrderCreated,
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		ItemCount:  len(o.Items),
	})
}

// ItemCreated publishes order.item.created for one item of a new order.
func (p *Producer) ItemCreated(ctx context.Context, o *domain.Order, item *domain.OrderItem) {
	p.emitter.Emit(ctx, events.OrderExchange, events.OrderItemCreated, item.ID, events.OrderItemCreatedEvent{
		EventType:        events.OrderItemCreated,
		OrderItemID:      item.ID,
		OrderID:          o.ID,
		ShopID:           item.ShopID,
		ProductID:        item.ProductID,
		ProductVariation: item.ProductVariation,
		Quantity:         item.Quantity,
		Price:            item.Price,
		Status:           string(item.Status),
		UserID:           o.UserID,
	})
}

// ItemStatusUpdated publishes order.item.status.updated.
func (p *Producer) ItemStatusUpdated(ctx context.Context, item *domain.OrderItem) {
	p.emitter.Emit(ctx, events.OrderExchange, events.OrderItemStatusUpdated, item.ID, events.OrderItemStatusUpdatedEvent{
		EventType:   events.OrderItemStatusUpdated,
		OrderItemID: item.ID,
		OrderID:     item.OrderID,
		ShopID:      item.ShopID,
		Status:      string(item.Status),
	})
}
