package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/logger"
)

type amqpBinding struct {
	queue, key, exchange string
}

type amqpPublished struct {
	exchange, key string
	mandatory     bool
	msg           amqp.Publishing
}

// fakeChannel records declarations and publishes. Messages published with
// mandatory set are returned unless a binding on their exchange exists.
type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	queues     map[string]bool
	bindings   []amqpBinding
	prefetch   int
	confirms   bool
	published  []amqpPublished
	publishErr error
	deliveries chan amqp.Delivery
	closed     int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		exchanges:  make(map[string]string),
		queues:     make(map[string]bool),
		deliveries: make(chan amqp.Delivery, 16),
	}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !durable {
		return errors.New("exchange must be durable")
	}
	c.exchanges[name] = kind
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues[name] = durable
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = append(c.bindings, amqpBinding{queue: name, key: key, exchange: exchange})
	return nil
}

func (c *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefetch = prefetchCount
	return nil
}

func (c *fakeChannel) Confirm(bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirms = true
	return nil
}

func (c *fakeChannel) ConsumeWithContext(context.Context, string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeChannel) NotifyClose(ch chan *amqp.Error) chan *amqp.Error {
	return ch
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeChannel) publishConfirmed(_ context.Context, exchange, key string, mandatory bool, p amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	if mandatory && !c.routable(exchange, key) {
		return ErrUnroutable
	}
	c.published = append(c.published, amqpPublished{exchange: exchange, key: key, mandatory: mandatory, msg: p})
	return nil
}

func (c *fakeChannel) routable(exchange, key string) bool {
	for _, b := range c.bindings {
		if b.exchange == exchange && MatchTopic(b.key, key) {
			return true
		}
	}
	return false
}

func (c *fakeChannel) publishes() []amqpPublished {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]amqpPublished(nil), c.published...)
}

type settlement struct {
	ack     bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	settled []settlement
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{ack: true})
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) results() []settlement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]settlement(nil), a.settled...)
}

func newTestAMQPBus(ch *fakeChannel) *AMQPBus {
	return &AMQPBus{
		cfg:    AMQPConfig{ConsumerTag: "test", ReconnectDelay: time.Millisecond},
		logger: logger.Discard(),
		open:   func() (amqpChannel, error) { return ch, nil },
	}
}

func delivery(ack amqp.Acknowledger, routingKey string) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		Exchange:     "order_events",
		RoutingKey:   routingKey,
		MessageId:    "I1",
		Body:         []byte(`{}`),
		Headers:      amqp.Table{"traceparent": "00-1"},
	}
}

func TestAMQPBus_PublishDeclaresExchangeAndPersists(t *testing.T) {
	ch := newFakeChannel()
	bus := newTestAMQPBus(ch)

	err := bus.Publish(context.Background(), Message{
		Exchange:   "shop_events",
		RoutingKey: "shop.approved",
		Key:        "S1",
		Body:       []byte(`{"shop_id":"S1"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, amqp.ExchangeTopic, ch.exchanges["shop_events"])
	assert.True(t, ch.confirms)
	assert.Equal(t, 1, ch.closed, "each publish uses its own channel")

	pubs := ch.publishes()
	require.Len(t, pubs, 1)
	assert.Equal(t, "shop_events", pubs[0].exchange)
	assert.Equal(t, "shop.approved", pubs[0].key)
	assert.False(t, pubs[0].mandatory)
	assert.Equal(t, amqp.Persistent, pubs[0].msg.DeliveryMode)
	assert.Equal(t, "S1", pubs[0].msg.MessageId)
	assert.Equal(t, "application/json", pubs[0].msg.ContentType)
}

func TestAMQPBus_PublishFailure(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("connection reset")
	bus := newTestAMQPBus(ch)

	err := bus.Publish(context.Background(), Message{Exchange: "shop_events", RoutingKey: "shop.updated", Key: "S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop.updated")
}

func TestAMQPBus_SubscribeDeclaresTopology(t *testing.T) {
	ch := newFakeChannel()
	bus := newTestAMQPBus(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Subscribe(ctx, testSub, func(context.Context, Message) error { return nil }) }()

	ack := &fakeAcknowledger{}
	ch.deliveries <- delivery(ack, "order.item.created")
	assert.Eventually(t, func() bool { return len(ack.results()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	ch.mu.Lock()
	defer ch.mu.Unlock()
	assert.Equal(t, amqp.ExchangeTopic, ch.exchanges["order_events"])
	assert.Equal(t, amqp.ExchangeTopic, ch.exchanges[ParkExchange])
	assert.True(t, ch.queues[testSub.Queue], "consumer queue is durable")
	assert.True(t, ch.queues[ParkQueue], "parking queue is durable")
	assert.Contains(t, ch.bindings, amqpBinding{queue: testSub.Queue, key: "order.item.created", exchange: "order_events"})
	assert.Contains(t, ch.bindings, amqpBinding{queue: ParkQueue, key: "#", exchange: ParkExchange})
	assert.Equal(t, 10, ch.prefetch)
}

func TestAMQPBus_HandleDeliverySettlement(t *testing.T) {
	tests := []struct {
		name       string
		handlerErr error
		want       settlement
		wantParked bool
	}{
		{"success acks", nil, settlement{ack: true}, false},
		{"malformed drops", Malformed(errors.New("bad json")), settlement{requeue: false}, false},
		{"transient failure requeues", errors.New("db down"), settlement{requeue: true}, false},
		{"missing prerequisite parks then acks", Skip("shop %s not found", "S1"), settlement{ack: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newFakeChannel()
			require.NoError(t, declareParking(ch))
			bus := newTestAMQPBus(ch)
			ack := &fakeAcknowledger{}

			h := func(context.Context, Message) error { return tt.handlerErr }
			bus.handleDelivery(context.Background(), testSub.Queue, h, delivery(ack, "order.item.created"), logger.Discard())

			assert.Equal(t, []settlement{tt.want}, ack.results())
			pubs := ch.publishes()
			if !tt.wantParked {
				assert.Empty(t, pubs)
				return
			}
			require.Len(t, pubs, 1)
			assert.Equal(t, ParkExchange, pubs[0].exchange)
			assert.True(t, pubs[0].mandatory)
			assert.Equal(t, "order_events", pubs[0].msg.Headers[HeaderOriginalExchange])
			assert.Equal(t, testSub.Queue, pubs[0].msg.Headers[HeaderParkedQueue])
			assert.Contains(t, pubs[0].msg.Headers[HeaderSkipReason], "shop S1 not found")
		})
	}
}

func TestAMQPBus_UnroutableParkRequeues(t *testing.T) {
	ch := newFakeChannel()
	bus := newTestAMQPBus(ch)
	ack := &fakeAcknowledger{}

	h := func(context.Context, Message) error { return Skip("shop missing") }
	bus.handleDelivery(context.Background(), testSub.Queue, h, delivery(ack, "order.item.created"), logger.Discard())

	assert.Equal(t, []settlement{{requeue: true}}, ack.results())
	assert.Empty(t, ch.publishes())
}

func TestAMQPBus_SubscribeRejectsInvalidSubscription(t *testing.T) {
	bus := newTestAMQPBus(newFakeChannel())
	err := bus.Subscribe(context.Background(), Subscription{Exchange: "order_events"}, nil)
	assert.Error(t, err)
}
