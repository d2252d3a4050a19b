// Package event keeps the search indices in sync with shop and product
// events.
package event

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/services/search/internal/domain"
	"github.com/utafrali/shopmesh/services/search/internal/service"
)

// Queues consumed by the indexer. A queue binds to one exchange, so shop
// and product events arrive on separate queues.
const (
	ShopQueue    = "search_indexer_shops"
	ProductQueue = "search_indexer_products"
	prefetch     = 20
)

// Subscriptions returns the queues the indexer consumes.
func Subscriptions() []eventbus.Subscription {
	return []eventbus.Subscription{
		{Exchange: events.ShopExchange, Queue: ShopQueue, Bindings: []string{"shop.*"}, Prefetch: prefetch},
		{
			Exchange: events.ProductExchange,
			Queue:    ProductQueue,
			Bindings: []string{"product.*", "product.variation.*"},
			Prefetch: prefetch,
		},
	}
}

// Consumer applies events to the search indices.
type Consumer struct {
	svc    *service.SearchService
	seen   *eventbus.SeenSet
	logger *slog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(svc *service.SearchService, logger *slog.Logger) *Consumer {
	return &Consumer{
		svc:    svc,
		seen:   eventbus.NewSeenSet(10*time.Minute, 10000),
		logger: logger,
	}
}

// Run consumes every subscription until ctx is done.
func (c *Consumer) Run(ctx context.Context, sub eventbus.Subscriber) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range Subscriptions() {
		h := c.HandleShop
		if s.Queue == ProductQueue {
			h = c.HandleProduct
		}
		g.Go(func() error {
			return sub.Subscribe(ctx, s, eventbus.Dedupe(c.seen, s.Queue, createdKey, h))
		})
	}
	return g.Wait()
}

// createdKey dedupes creations only; updates and deletes always apply.
func createdKey(msg eventbus.Message) string {
	if !strings.HasSuffix(msg.RoutingKey, ".created") || msg.Key == "" {
		return ""
	}
	return msg.RoutingKey + ":" + msg.Key
}

// permanent marks invalid documents as malformed so they are not retried.
func permanent(err error) error {
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return eventbus.Malformed(err)
	}
	return err
}

// HandleShop applies one shop event.
func (c *Consumer) HandleShop(ctx context.Context, msg eventbus.Message) error {
	ev, err := events.Decode[events.ShopEvent](msg)
	if err != nil {
		return err
	}

	switch msg.RoutingKey {
	case events.ShopCreated, events.ShopApproved, events.ShopUpdated:
		if ev.ShopData == nil {
			return eventbus.Malformed(errors.New("shop_data is missing"))
		}
		d := ev.ShopData
		id := d.ID
		if id == "" {
			id = ev.ShopID
		}
		return permanent(c.svc.IndexShop(ctx, domain.Shop{
			ID:        id,
			Name:      d.Name,
			Slug:      d.Slug,
			About:     d.About,
			UserID:    d.UserID,
			IsActive:  d.IsActive,
			CreatedAt: d.CreatedAt,
		}))
	case events.ShopDeleted:
		return c.svc.Remove(ctx, domain.IndexShops, ev.ShopID)
	default:
		c.logger.DebugContext(ctx, "ignoring shop event", slog.String("routing_key", msg.RoutingKey))
		return nil
	}
}

// HandleProduct applies one product or variation event.
func (c *Consumer) HandleProduct(ctx context.Context, msg eventbus.Message) error {
	if strings.HasPrefix(msg.RoutingKey, "product.variation.") {
		return c.handleVariation(ctx, msg)
	}

	ev, err := events.Decode[events.ProductEvent](msg)
	if err != nil {
		return err
	}

	switch msg.RoutingKey {
	case events.ProductCreated, events.ProductUpdated:
		if ev.ProductData == nil {
			return eventbus.Malformed(errors.New("product_data is missing"))
		}
		d := ev.ProductData
		id := d.ID
		if id == "" {
			id = ev.ProductID
		}
		return permanent(c.svc.IndexProduct(ctx, domain.Product{
			ID:         id,
			ShopID:     d.ShopID,
			Title:      d.Title,
			About:      d.About,
			OnSale:     d.OnSale,
			IsActive:   d.IsActive,
			TopSale:    d.TopSale,
			TopPopular: d.TopPopular,
			SKU:        d.SKU,
			CreatedAt:  d.CreatedAt,
		}))
	case events.ProductDeleted:
		return c.svc.Remove(ctx, domain.IndexProducts, ev.ProductID)
	default:
		c.logger.DebugContext(ctx, "ignoring product event", slog.String("routing_key", msg.RoutingKey))
		return nil
	}
}

func (c *Consumer) handleVariation(ctx context.Context, msg eventbus.Message) error {
	ev, err := events.Decode[events.VariationEvent](msg)
	if err != nil {
		return err
	}

	switch msg.RoutingKey {
	case events.VariationCreated, events.VariationUpdated:
		if ev.VariationData == nil {
			return eventbus.Malformed(errors.New("variation_data is missing"))
		}
		d := ev.VariationData
		id := d.ID
		if id == "" {
			id = ev.VariationID
		}
		productID := d.ProductID
		if productID == "" {
			productID = ev.ProductID
		}
		return permanent(c.svc.IndexVariation(ctx, domain.Variation{
			ID:          id,
			ProductID:   productID,
			Size:        d.Size,
			Color:       d.Color,
			Price:       d.Price,
			Discount:    d.Discount,
			AmountLimit: d.AmountLimit,
			IsActive:    d.IsActive,
		}))
	case events.VariationDeleted:
		return c.svc.Remove(ctx, domain.IndexVariations, ev.VariationID)
	default:
		return nil
	}
}
