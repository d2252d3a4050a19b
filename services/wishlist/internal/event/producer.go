// Package event publishes wishlist events and learns about users from the
// user service's events.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/wishlist/internal/domain"
)

// SourceWishlistService identifies events originating from this service.
const SourceWishlistService = "wishlist-service"

// Producer publishes wishlist events. Publishing is best effort.
type Producer struct {
	emitter *events.Emitter
}

// NewProducer creates a producer on publisher.
func NewProducer(publisher eventbus.Publisher, logger *slog.Logger) *Producer {
	return &Producer{emitter: events.NewEmitter(publisher, SourceWishlistService, logger)}
}

// WishlistCreated publishes wishlist.created.
func (p *Producer) WishlistCreated(ctx context.Context, item *domain.WishlistItem) {
	p.emitter.Emit(ctx, events.WishlistExchange, events.WishlistCreated, item.ID, events.WishlistCreatedEvent{
		EventType:          events.WishlistCreated,
		WishlistID:         item.ID,
		UserID:             item.UserID,
		ProductVariationID: item.ProductVariationID,
		ShopID:             item.ShopID,
	})
}

// WishlistDeleted publishes wishlist.deleted.
func (p *Producer) WishlistDeleted(ctx context.Context, item *domain.WishlistItem) {
	p.emitter.Emit(ctx, events.WishlistExchange, events.WishlistDeleted, item.ID, events.WishlistDeletedEvent{
		EventType:  events.WishlistDeleted,
		WishlistID: item.ID,
		UserID:     item.UserID,
	})
}
