// Package eventbus carries domain events between services over a topic
// exchange. Publishers are best effort; subscribers receive every message at
// least once and settle it according to the handler's result.
package eventbus

import (
	"context"
	"errors"
	"fmt"
)

// Message is one event on the wire.
type Message struct {
	// Exchange is the topic exchange (Kafka topic) the event belongs to,
	// e.g. "shop_events".
	Exchange string
	// RoutingKey is the dot separated event type, e.g. "shop.approved".
	RoutingKey string
	// Key identifies the entity. It becomes the AMQP message id and the Kafka
	// partition key, so events for one entity stay ordered.
	Key     string
	Body    []byte
	Headers map[string]string
}

// Header returns the header value for key, or "".
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// Handler applies one message. Its error decides the settlement, see Settle.
type Handler func(ctx context.Context, msg Message) error

// Subscription describes a durable queue bound to an exchange.
type Subscription struct {
	Exchange string
	Queue    string
	// Bindings are routing key patterns; "*" matches one word and "#" zero
	// or more.
	Bindings []string
	// Prefetch bounds unacknowledged deliveries held by this consumer.
	Prefetch int
}

// Validate checks that the subscription can be declared.
func (s Subscription) Validate() error {
	switch {
	case s.Exchange == "":
		return errors.New("eventbus: subscription exchange is required")
	case s.Queue == "":
		return errors.New("eventbus: subscription queue is required")
	case len(s.Bindings) == 0:
		return fmt.Errorf("eventbus: queue %s has no bindings", s.Queue)
	}
	return nil
}

func (s Subscription) prefetch() int {
	if s.Prefetch <= 0 {
		return 1
	}
	return s.Prefetch
}

// Publisher sends messages to an exchange.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber delivers messages from a durable queue to a handler.
// Subscribe blocks until ctx is cancelled or the subscription fails for good.
type Subscriber interface {
	Subscribe(ctx context.Context, sub Subscription, h Handler) error
	Close() error
}

// Bus is a broker connection able to publish and subscribe.
type Bus interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
}
