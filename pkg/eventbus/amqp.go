package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig configures the RabbitMQ driver.
type AMQPConfig struct {
	URL            string
	ConsumerTag    string
	ReconnectDelay time.Duration
}

// AMQPBus publishes to durable topic exchanges and consumes from durable
// queues on RabbitMQ. One connection is shared; every publish opens its own
// channel so concurrent publishers never interleave frames.
type AMQPBus struct {
	cfg    AMQPConfig
	logger *slog.Logger

	// open returns a fresh channel; tests replace it.
	open func() (amqpChannel, error)

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool
}

// amqpChannel is the part of *amqp.Channel the bus uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Confirm(noWait bool) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Close() error

	// publishConfirmed publishes p and waits for the broker confirm. With
	// mandatory set, a message no queue is bound for is ErrUnroutable.
	publishConfirmed(ctx context.Context, exchange, key string, mandatory bool, p amqp.Publishing) error
}

// ErrUnroutable is returned when the broker returns a mandatory message
// because no queue is bound for it.
var ErrUnroutable = errors.New("eventbus: message unroutable")

// ParkQueue holds every parked message until a reconciliation job drains it.
const ParkQueue = "events.parked"

type liveChannel struct {
	*amqp.Channel
}

func (c liveChannel) publishConfirmed(ctx context.Context, exchange, key string, mandatory bool, p amqp.Publishing) error {
	var returns chan amqp.Return
	if mandatory {
		returns = c.NotifyReturn(make(chan amqp.Return, 1))
	}
	confirm, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, false, p)
	if err != nil {
		return err
	}
	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait confirm: %w", err)
	}
	if !ok {
		return errors.New("broker nacked message")
	}
	// The broker sends basic.return before the confirm.
	select {
	case r, open := <-returns:
		if open {
			return fmt.Errorf("%w: %s", ErrUnroutable, r.ReplyText)
		}
	default:
	}
	return nil
}

// NewAMQPBus dials RabbitMQ.
func NewAMQPBus(cfg AMQPConfig, logger *slog.Logger) (*AMQPBus, error) {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	b := &AMQPBus{cfg: cfg, logger: logger}
	b.open = b.openChannel
	if _, err := b.connection(); err != nil {
		return nil, err
	}
	return b, nil
}

// connection returns the live connection, redialing when the previous one
// was closed by the broker.
func (b *AMQPBus) connection() (*amqp.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("eventbus: amqp bus closed")
	}
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn, nil
	}

	conn, err := amqp.DialConfig(b.cfg.URL, amqp.Config{
		Heartbeat:  10 * time.Second,
		Properties: amqp.Table{"connection_name": b.cfg.ConsumerTag},
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	b.conn = conn
	return conn, nil
}

func (b *AMQPBus) openChannel() (amqpChannel, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return liveChannel{ch}, nil
}

func declareExchange(ch amqpChannel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// declareParking declares the parking exchange and a durable queue bound to
// every routing key, so parked messages always have somewhere to go.
func declareParking(ch amqpChannel) error {
	if err := declareExchange(ch, ParkExchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(ParkQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", ParkQueue, err)
	}
	if err := ch.QueueBind(ParkQueue, "#", ParkExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", ParkQueue, ParkExchange, err)
	}
	return nil
}

// Publish declares msg.Exchange, publishes msg persistently and waits for the
// broker confirm.
func (b *AMQPBus) Publish(ctx context.Context, msg Message) error {
	return b.publish(ctx, msg, false)
}

func (b *AMQPBus) publish(ctx context.Context, msg Message, mandatory bool) (err error) {
	ctx, msg, finish := startPublish(ctx, "amqp", msg)
	defer func() { finish(err) }()

	ch, err := b.open()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch, msg.Exchange); err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable confirms: %w", err)
	}

	headers := make(amqp.Table, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}

	err = ch.publishConfirmed(ctx, msg.Exchange, msg.RoutingKey, mandatory, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.Key,
		Timestamp:    time.Now().UTC(),
		Type:         msg.RoutingKey,
		Headers:      headers,
		Body:         msg.Body,
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.RoutingKey, msg.Exchange, err)
	}
	return nil
}

// Subscribe declares the queue and its bindings and consumes until ctx is
// done, reconnecting after broker disconnects.
func (b *AMQPBus) Subscribe(ctx context.Context, sub Subscription, h Handler) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	log := b.logger.With(slog.String("queue", sub.Queue), slog.String("exchange", sub.Exchange))

	for {
		err := b.consume(ctx, sub, h, log)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("consumer disconnected, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("delay", b.cfg.ReconnectDelay),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.cfg.ReconnectDelay):
		}
	}
}

func (b *AMQPBus) consume(ctx context.Context, sub Subscription, h Handler, log *slog.Logger) error {
	ch, err := b.open()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch, sub.Exchange); err != nil {
		return err
	}
	if err := declareParking(ch); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(sub.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", sub.Queue, err)
	}
	for _, key := range sub.Bindings {
		if err := ch.QueueBind(sub.Queue, key, sub.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s/%s: %w", sub.Queue, sub.Exchange, key, err)
		}
	}
	if err := ch.Qos(sub.prefetch(), 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, sub.Queue, b.cfg.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", sub.Queue, err)
	}
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	log.Info("consumer started", slog.Any("bindings", sub.Bindings), slog.Int("prefetch", sub.prefetch()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("channel closed")
			}
			return amqpErr
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			b.handleDelivery(ctx, sub.Queue, h, d, log)
		}
	}
}

func (b *AMQPBus) handleDelivery(ctx context.Context, queue string, h Handler, d amqp.Delivery, log *slog.Logger) {
	msg := Message{
		Exchange:   d.Exchange,
		RoutingKey: d.RoutingKey,
		Key:        d.MessageId,
		Body:       d.Body,
		Headers:    tableToHeaders(d.Headers),
	}

	action, herr := dispatch(ctx, queue, h, msg, log)

	var err error
	switch action {
	case Ack:
		err = d.Ack(false)
	case Drop:
		err = d.Nack(false, false)
	case Requeue:
		err = d.Nack(false, true)
	case Park:
		if perr := b.publish(ctx, parked(msg, queue, herr), true); perr != nil {
			// Keep the message rather than lose it; it is redelivered later.
			log.Error("park event failed, requeueing", slog.String("error", perr.Error()))
			err = d.Nack(false, true)
			break
		}
		err = d.Ack(false)
	}
	if err != nil {
		log.Error("settle delivery failed",
			slog.String("action", action.String()),
			slog.String("routing_key", msg.RoutingKey),
			slog.String("error", err.Error()),
		)
	}
}

func tableToHeaders(t amqp.Table) map[string]string {
	headers := make(map[string]string, len(t))
	for k, v := range t {
		switch val := v.(type) {
		case string:
			headers[k] = val
		case []byte:
			headers[k] = string(val)
		default:
			headers[k] = fmt.Sprint(val)
		}
	}
	return headers
}

// Ping verifies that a channel can be opened.
func (b *AMQPBus) Ping(_ context.Context) error {
	ch, err := b.open()
	if err != nil {
		return fmt.Errorf("rabbitmq ping: %w", err)
	}
	return ch.Close()
}

// Close closes the connection. Running subscriptions return once their
// contexts are cancelled.
func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	return b.conn.Close()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
