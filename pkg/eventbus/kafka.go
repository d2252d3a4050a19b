package eventbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka driver. Each exchange maps to a topic of
// the same name; the routing key travels in a header and bindings are
// matched on the consumer side.
type KafkaConfig struct {
	Brokers      []string
	BatchTimeout time.Duration
	// MaxAttempts bounds handler retries for transient failures before the
	// message is moved to the parking topic.
	MaxAttempts int
	// FetchBackoff is the pause after a failed fetch.
	FetchBackoff time.Duration
}

const (
	kafkaRoutingKeyHeader = "routing_key"
	kafkaMaxBytes         = 10 << 20
)

// KafkaBus implements Bus on Kafka.
type KafkaBus struct {
	cfg    KafkaConfig
	writer *kafka.Writer
	logger *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

// kafkaReader is the part of *kafka.Reader a subscription uses.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaBus creates a Kafka-backed bus. No connection is made until the
// first publish or subscribe.
func NewKafkaBus(cfg KafkaConfig, logger *slog.Logger) *KafkaBus {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.FetchBackoff <= 0 {
		cfg.FetchBackoff = time.Second
	}
	return &KafkaBus{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           cfg.BatchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// ParkTopic is the topic receiving parked and dropped messages of topic.
func ParkTopic(topic string) string {
	return ParkExchange + "." + topic
}

func toKafka(msg Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+1)
	headers = append(headers, kafka.Header{Key: kafkaRoutingKeyHeader, Value: []byte(msg.RoutingKey)})
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Topic:   msg.Exchange,
		Key:     []byte(msg.Key),
		Value:   msg.Body,
		Headers: headers,
	}
}

func fromKafka(km kafka.Message) Message {
	msg := Message{
		Exchange: km.Topic,
		Key:      string(km.Key),
		Body:     km.Value,
		Headers:  make(map[string]string, len(km.Headers)),
	}
	for _, h := range km.Headers {
		if h.Key == kafkaRoutingKeyHeader {
			msg.RoutingKey = string(h.Value)
			continue
		}
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// Publish writes msg to the topic named after its exchange, keyed by the
// entity id.
func (b *KafkaBus) Publish(ctx context.Context, msg Message) (err error) {
	ctx, msg, finish := startPublish(ctx, "kafka", msg)
	defer func() { finish(err) }()

	if err := b.writer.WriteMessages(ctx, toKafka(msg)); err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.RoutingKey, msg.Exchange, err)
	}
	return nil
}

// Subscribe consumes the exchange topic with the queue name as consumer
// group. Messages whose routing key matches no binding are committed
// without invoking h.
func (b *KafkaBus) Subscribe(ctx context.Context, sub Subscription, h Handler) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:       b.cfg.Brokers,
		GroupID:       sub.Queue,
		Topic:         sub.Exchange,
		MinBytes:      1,
		MaxBytes:      kafkaMaxBytes,
		QueueCapacity: sub.prefetch(),
	})
	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()
	defer func() { _ = reader.Close() }()

	log := b.logger.With(slog.String("queue", sub.Queue), slog.String("topic", sub.Exchange))
	log.Info("consumer started", slog.Any("bindings", sub.Bindings))
	return b.consume(ctx, sub, reader, h, log)
}

// consume fetches until ctx is done or the reader is closed.
func (b *KafkaBus) consume(ctx context.Context, sub Subscription, reader kafkaReader, h Handler, log *slog.Logger) error {
	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			log.Error("fetch message failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.cfg.FetchBackoff):
			}
			continue
		}

		msg := fromKafka(km)
		if MatchAny(sub.Bindings, msg.RoutingKey) {
			if !b.process(ctx, sub.Queue, h, msg, log) {
				return nil
			}
		}

		if err := reader.CommitMessages(ctx, km); err != nil && ctx.Err() == nil {
			log.Error("commit message failed",
				slog.Int("partition", km.Partition),
				slog.Int64("offset", km.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process handles msg with bounded retries for transient failures. Kafka has
// no per-message requeue, so a message that keeps failing is parked to keep
// the partition moving. It returns false when ctx ended mid-retry and the
// offset must not be committed.
func (b *KafkaBus) process(ctx context.Context, queue string, h Handler, msg Message, log *slog.Logger) bool {
	for attempt := 1; ; attempt++ {
		action, herr := dispatch(ctx, queue, h, msg, log)
		switch action {
		case Ack:
			return true
		case Drop, Park:
			b.park(ctx, queue, msg, herr, log)
			return true
		}

		if attempt >= b.cfg.MaxAttempts {
			log.Error("handler failed after all retries, parking message",
				slog.String("routing_key", msg.RoutingKey),
				slog.Int("attempts", attempt),
			)
			b.park(ctx, queue, msg, herr, log)
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
}

func (b *KafkaBus) park(ctx context.Context, queue string, msg Message, reason error, log *slog.Logger) {
	p := parked(msg, queue, reason)
	p.Exchange = ParkTopic(msg.Exchange)
	if err := b.Publish(ctx, p); err != nil {
		log.Error("park message failed",
			slog.String("park_topic", p.Exchange),
			slog.String("routing_key", msg.RoutingKey),
			slog.String("error", err.Error()),
		)
	}
}

// Ping dials the brokers and returns nil when at least one answers.
func (b *KafkaBus) Ping(ctx context.Context) error {
	if len(b.cfg.Brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	var lastErr error
	for _, addr := range b.cfg.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}

// Close flushes the writer and closes open readers.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	readers := b.readers
	b.readers = nil
	b.mu.Unlock()

	for _, r := range readers {
		_ = r.Close()
	}
	return b.writer.Close()
}
