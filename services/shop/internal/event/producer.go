// Package event publishes shop events and mirrors order items from the order
// service's events.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/shop/internal/domain"
)

// SourceShopService identifies events originating from this service.
const SourceShopService = "shop-service"

// Producer publishes shop lifecycle events. Publishing is best effort.
type Producer struct {
	emitter *events.Emitter
}

// NewProducer creates a producer on publisher.
func NewProducer(publisher eventbus.Publisher, logger *slog.Logger) *Producer {
	return &Producer{emitter: events.NewEmitter(publisher, SourceShopService, logger)}
}

func (p *Producer) emit(ctx context.Context, routingKey string, s *domain.Shop, withData bool) bool {
	ev := events.ShopEvent{
		EventType:   routingKey,
		UserUUID:    s.UserID,
		ShopID:      s.ID,
		IsShopOwner: true,
	}
	if withData {
		ev.ShopData = s.EventData()
	}
	return p.emitter.Emit(ctx, events.ShopExchange, routingKey, s.ID, ev)
}

// ShopCreated publishes shop.created.
func (p *Producer) ShopCreated(ctx context.Context, s *domain.Shop) bool {
	return p.emit(ctx, events.ShopCreated, s, true)
}

// ShopApproved publishes shop.approved.
func (p *Producer) ShopApproved(ctx context.Context, s *domain.Shop) bool {
	return p.emit(ctx, events.ShopApproved, s, true)
}

// ShopUpdated publishes shop.updated.
func (p *Producer) ShopUpdated(ctx context.Context, s *domain.Shop) bool {
	return p.emit(ctx, events.ShopUpdated, s, true)
}

// ShopDeleted publishes shop.deleted without a snapshot.
func (p *Producer) ShopDeleted(ctx context.Context, s *domain.Shop) bool {
	return p.emit(ctx, events.ShopDeleted, s, false)
}
