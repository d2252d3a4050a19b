package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/events"
	"github.com/utafrali/shopmesh/pkg/logger"
	"github.com/utafrali/shopmesh/services/search/internal/domain"
	"github.com/utafrali/shopmesh/services/search/internal/engine/memory"
	"github.com/utafrali/shopmesh/services/search/internal/service"
)

type harness struct {
	bus     *eventbus.MemoryBus
	emitter *events.Emitter
	svc     *service.SearchService
}

func startConsumer(t *testing.T) *harness {
	t.Helper()
	log := logger.Discard()
	bus := eventbus.NewMemoryBus(log)
	for _, s := range Subscriptions() {
		require.NoError(t, bus.Bind(s))
	}

	svc := service.NewSearchService(memory.New(), log)
	c := NewConsumer(svc, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx, bus)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &harness{bus: bus, emitter: events.NewEmitter(bus, "test", log), svc: svc}
}

func (h *harness) findsOneProduct(q string) func() bool {
	return func() bool {
		res, err := h.svc.Search(context.Background(), q, 10)
		if err != nil {
			return false
		}
		return len(res.Products) == 1
	}
}

func TestConsumer_ProductCreatedIsSearchable(t *testing.T) {
	h := startConsumer(t)
	ctx := context.Background()

	require.True(t, h.emitter.Emit(ctx, events.ProductExchange, events.ProductCreated, "P1", events.ProductEvent{
		EventType:   events.ProductCreated,
		ProductID:   "P1",
		ProductData: &events.ProductData{ID: "P1", ShopID: "S1", Title: "Shoe", IsActive: true},
	}))

	assert.Eventually(t, h.findsOneProduct("Shoe"), time.Second, 5*time.Millisecond)

	res, err := h.svc.Search(ctx, "Shoe", 10)
	require.NoError(t, err)
	assert.Equal(t, "P1", res.Products[0].ID)
	assert.Equal(t, "S1", res.Products[0].ShopID)
}

func TestConsumer_ProductDeletedIsRemoved(t *testing.T) {
	h := startConsumer(t)
	ctx := context.Background()

	h.emitter.Emit(ctx, events.ProductExchange, events.ProductCreated, "P1", events.ProductEvent{
		EventType:   events.ProductCreated,
		ProductID:   "P1",
		ProductData: &events.ProductData{ID: "P1", Title: "Boot"},
	})
	require.Eventually(t, h.findsOneProduct("Boot"), time.Second, 5*time.Millisecond)

	h.emitter.Emit(ctx, events.ProductExchange, events.ProductDeleted, "P1", events.ProductEvent{
		EventType: events.ProductDeleted,
		ProductID: "P1",
	})
	assert.Eventually(t, func() bool {
		res, err := h.svc.Search(ctx, "Boot", 10)
		return err == nil && len(res.Products) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestConsumer_ShopLifecycle(t *testing.T) {
	h := startConsumer(t)
	ctx := context.Background()

	h.emitter.Emit(ctx, events.ShopExchange, events.ShopCreated, "S1", events.ShopEvent{
		EventType: events.ShopCreated,
		ShopID:    "S1",
		ShopData:  &events.ShopData{ID: "S1", Name: "Corner Store", UserID: "U1"},
	})
	h.emitter.Emit(ctx, events.ShopExchange, events.ShopUpdated, "S1", events.ShopEvent{
		EventType: events.ShopUpdated,
		ShopID:    "S1",
		ShopData:  &events.ShopData{ID: "S1", Name: "Harbour Store", UserID: "U1", IsActive: true},
	})

	assert.Eventually(t, func() bool {
		res, err := h.svc.Search(ctx, "harbour", 10)
		return err == nil && len(res.Shops) == 1 && res.Shops[0].UserID == "U1"
	}, time.Second, 5*time.Millisecond)

	h.emitter.Emit(ctx, events.ShopExchange, events.ShopDeleted, "S1", events.ShopEvent{
		EventType: events.ShopDeleted,
		ShopID:    "S1",
	})
	assert.Eventually(t, func() bool {
		res, err := h.svc.Search(ctx, "harbour", 10)
		return err == nil && len(res.Shops) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestConsumer_VariationsFollowProduct(t *testing.T) {
	h := startConsumer(t)
	ctx := context.Background()

	h.emitter.Emit(ctx, events.ProductExchange, events.VariationCreated, "V1", events.VariationEvent{
		EventType:     events.VariationCreated,
		VariationID:   "V1",
		ProductID:     "P1",
		VariationData: &events.VariationData{ID: "V1", Size: "42", Color: "red", Price: 4999},
	})

	assert.Eventually(t, func() bool {
		vs, err := h.svc.VariationsByProduct(ctx, "P1", 10)
		return err == nil && len(vs) == 1 && vs[0].ProductID == "P1"
	}, time.Second, 5*time.Millisecond)
}

func TestConsumer_MissingDataIsDropped(t *testing.T) {
	h := startConsumer(t)
	ctx := context.Background()

	h.emitter.Emit(ctx, events.ShopExchange, events.ShopCreated, "S1", events.ShopEvent{
		EventType: events.ShopCreated,
		ShopID:    "S1",
	})
	require.NoError(t, h.bus.Publish(ctx, eventbus.Message{
		Exchange:   events.ProductExchange,
		RoutingKey: events.ProductUpdated,
		Body:       []byte("{not json"),
	}))

	assert.Eventually(t, func() bool { return len(h.bus.Dropped()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestConsumer_UnknownRoutingKeyIsAcked(t *testing.T) {
	c := NewConsumer(service.NewSearchService(memory.New(), logger.Discard()), logger.Discard())
	err := c.HandleShop(context.Background(), eventbus.Message{
		Exchange:   events.ShopExchange,
		RoutingKey: "shop.archived",
		Body:       []byte(`{"shop_id":"S1"}`),
	})
	assert.NoError(t, err)
}

func TestCreatedKey(t *testing.T) {
	assert.Equal(t, "product.created:P1", createdKey(eventbus.Message{RoutingKey: events.ProductCreated, Key: "P1"}))
	assert.Empty(t, createdKey(eventbus.Message{RoutingKey: events.ProductUpdated, Key: "P1"}))
	assert.Empty(t, createdKey(eventbus.Message{RoutingKey: events.ShopCreated}))
}

func TestHandleProduct_FallsBackToEventID(t *testing.T) {
	svc := service.NewSearchService(memory.New(), logger.Discard())
	c := NewConsumer(svc, logger.Discard())
	body := []byte(`{"event_type":"product.created","product_id":"P9","product_data":{"title":"Lamp","shop_id":"S2"}}`)

	require.NoError(t, c.HandleProduct(context.Background(), eventbus.Message{
		Exchange:   events.ProductExchange,
		RoutingKey: events.ProductCreated,
		Body:       body,
	}))

	products, err := svc.ProductsByShop(context.Background(), "S2", domain.DefaultSize)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "P9", products[0].ID)
}

func TestConsumer_RedeliveredCreateIndexesOnce(t *testing.T) {
	h := startConsumer(t)
	ctx := context.Background()
	created := events.ProductEvent{
		EventType:   events.ProductCreated,
		ProductID:   "P1",
		ProductData: &events.ProductData{ID: "P1", ShopID: "S1", Title: "Shoe", IsActive: true},
	}

	require.True(t, h.emitter.Emit(ctx, events.ProductExchange, events.ProductCreated, "P1", created))
	require.True(t, h.emitter.Emit(ctx, events.ProductExchange, events.ProductCreated, "P1", created))
	// P2 follows the redelivery on the same queue.
	require.True(t, h.emitter.Emit(ctx, events.ProductExchange, events.ProductCreated, "P2", events.ProductEvent{
		EventType:   events.ProductCreated,
		ProductID:   "P2",
		ProductData: &events.ProductData{ID: "P2", ShopID: "S1", Title: "Boot", IsActive: true},
	}))

	require.Eventually(t, h.findsOneProduct("Boot"), time.Second, 5*time.Millisecond)
	res, err := h.svc.Search(ctx, "Shoe", 10)
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "P1", res.Products[0].ID)
}
