package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// MemoryBus is an in-process topic exchange. Queues are created by Bind or
// Subscribe; messages published to an exchange with no matching queue are
// discarded, as a broker would.
type MemoryBus struct {
	logger *slog.Logger

	mu        sync.Mutex
	queues    map[string]*memoryQueue
	published []Message
	parkedLog []Message
	dropped   []Message
	closed    bool
}

type memoryQueue struct {
	sub      Subscription
	messages chan Message
}

const (
	memoryQueueSize    = 1024
	memoryRequeueDelay = 10 * time.Millisecond
)

// requeue puts m back on the queue after delay. It gives up when ctx ends,
// even if the queue is full.
func (q *memoryQueue) requeue(ctx context.Context, m Message, delay time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}
	select {
	case q.messages <- m:
	case <-ctx.Done():
	}
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{logger: logger, queues: make(map[string]*memoryQueue)}
}

// Bind declares sub's queue and bindings without consuming. Calling it again
// for the same queue adds bindings.
func (b *MemoryBus) Bind(sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindLocked(sub)
	return nil
}

func (b *MemoryBus) bindLocked(sub Subscription) *memoryQueue {
	q, ok := b.queues[sub.Queue]
	if !ok {
		q = &memoryQueue{sub: sub, messages: make(chan Message, memoryQueueSize)}
		b.queues[sub.Queue] = q
		return q
	}
	for _, key := range sub.Bindings {
		if !contains(q.sub.Bindings, key) {
			q.sub.Bindings = append(q.sub.Bindings, key)
		}
	}
	return q
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Publish routes msg to every queue bound to its exchange with a matching
// pattern.
func (b *MemoryBus) Publish(ctx context.Context, msg Message) (err error) {
	ctx, msg, finish := startPublish(ctx, "memory", msg)
	defer func() { finish(err) }()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("eventbus: memory bus closed")
	}

	b.published = append(b.published, msg)
	if msg.Exchange == ParkExchange {
		b.parkedLog = append(b.parkedLog, msg)
	}
	for _, q := range b.queues {
		if q.sub.Exchange != msg.Exchange || !MatchAny(q.sub.Bindings, msg.RoutingKey) {
			continue
		}
		select {
		case q.messages <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			return errors.New("eventbus: memory queue " + q.sub.Queue + " is full")
		}
	}
	return nil
}

// Subscribe binds sub and consumes its queue until ctx is done. Requeued
// messages go to the back of the queue after a short delay.
func (b *MemoryBus) Subscribe(ctx context.Context, sub Subscription, h Handler) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("eventbus: memory bus closed")
	}
	q := b.bindLocked(sub)
	b.mu.Unlock()

	log := b.logger.With(slog.String("queue", sub.Queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-q.messages:
			action, herr := dispatch(ctx, sub.Queue, h, msg, log)
			switch action {
			case Drop:
				b.mu.Lock()
				b.dropped = append(b.dropped, msg)
				b.mu.Unlock()
			case Park:
				if err := b.Publish(ctx, parked(msg, sub.Queue, herr)); err != nil {
					log.Error("park event failed", slog.String("error", err.Error()))
				}
			case Requeue:
				go q.requeue(ctx, msg, memoryRequeueDelay)
			}
		}
	}
}

// Published returns a copy of every message published so far.
func (b *MemoryBus) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.published...)
}

// Parked returns messages sent to ParkExchange.
func (b *MemoryBus) Parked() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.parkedLog...)
}

// Dropped returns messages rejected as malformed.
func (b *MemoryBus) Dropped() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.dropped...)
}

// Ping always succeeds while the bus is open.
func (b *MemoryBus) Ping(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("eventbus: memory bus closed")
	}
	return nil
}

// Close rejects further publishes.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
