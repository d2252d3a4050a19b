// Package event publishes product and variation events.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/product/internal/domain"
)

// SourceProductService identifies events originating from this service.
const SourceProductService = "product-service"

// Producer publishes product domain events. Publishing is best effort.
type Producer struct {
	emitter *events.Emitter
}

// NewProducer creates a producer on publisher.
func NewProducer(publisher eventbus.Publisher, logger *slog.Logger) *Producer {
	return &Producer{emitter: events.NewEmitter(publisher, SourceProductService, logger)}
}

// ProductCreated publishes product.created.
func (p *Producer) ProductCreated(ctx context.Context, product *domain.Product) {
	p.emitter.Emit(ctx, events.ProductExchange, events.ProductCreated, product.ID, events.ProductEvent{
		EventType:   events.ProductCreated,
		ProductID:   product.ID,
		ProductData: product.EventData(),
	})
}

// ProductUpdated publishes product.updated.
func (p *Producer) ProductUpdated(ctx context.Context, product *domain.Product) {
	p.emitter.Emit(ctx, events.ProductExchange, events.ProductUpdated, product.ID, events.ProductEvent{
		EventType:   events.ProductUpdated,
		ProductID:   product.ID,
		ProductData: product.EventData(),
	})
}

// ProductDeleted publishes product.deleted without a snapshot.
func (p *Producer) ProductDeleted(ctx context.Context, productID string) {
	p.emitter.Emit(ctx, events.ProductExchange, events.ProductDeleted, productID, events.ProductEvent{
		EventType: events.ProductDeleted,
		ProductID: productID,
	})
}

func (p *Producer) variation(ctx context.Context, routingKey string, v *domain.Variation) {
	p.emitter.Emit(ctx, events.ProductExchange, routingKey, v.ID, events.VariationEvent{
		EventType:     routingKey,
		VariationID:   v.ID,
		ProductID:     v.ProductID,
		VariationData: v.EventData(),
	})
}

// VariationCreated publishes product.variation.created.
func (p *Producer) VariationCreated(ctx context.Context, v *domain.Variation) {
	p.variation(ctx, events.VariationCreated, v)
}

// VariationUpdated publishes product.variation.updated.
func (p *Producer) VariationUpdated(ctx context.Context, v *domain.Variation) {
	p.variation(ctx, events.VariationUpdated, v)
}

// VariationDeleted publishes product.variation.deleted.
func (p *Producer) VariationDeleted(ctx context.Context, productID, variationID string) {
	p.emitter.Emit(ctx, events.ProductExchange, events.VariationDeleted, variationID, events.VariationEvent{
		EventType:   events.VariationDeleted,
		VariationID: variationID,
		ProductID:   productID,
	})
}
