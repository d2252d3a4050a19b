package eventbus

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/logger"
)

func TestKafkaMessageConversion(t *testing.T) {
	msg := Message{
		Exchange:   "product_events",
		RoutingKey: "product.created",
		Key:        "P1",
		Body:       []byte(`{"event_type":"product.created"}`),
		Headers:    map[string]string{"traceparent": "00-1"},
	}

	km := toKafka(msg)
	assert.Equal(t, "product_events", km.Topic)
	assert.Equal(t, []byte("P1"), km.Key)

	back := fromKafka(km)
	assert.Equal(t, msg, back)
}

func TestParkTopic(t *testing.T) {
	assert.Equal(t, "events.parked.order_events", ParkTopic("order_events"))
}

func TestTableToHeaders(t *testing.T) {
	headers := tableToHeaders(amqp.Table{
		"traceparent": "00-1",
		"raw":         []byte("bytes"),
		"count":       int32(3),
	})
	assert.Equal(t, map[string]string{"traceparent": "00-1", "raw": "bytes", "count": "3"}, headers)
}

type fetchResult struct {
	msg kafka.Message
	err error
}

// scriptedReader returns its results in order, then io.EOF as a closed
// reader does.
type scriptedReader struct {
	results   []fetchResult
	fetches   int
	committed []kafka.Message
}

func (r *scriptedReader) FetchMessage(context.Context) (kafka.Message, error) {
	r.fetches++
	if len(r.results) == 0 {
		return kafka.Message{}, io.EOF
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.msg, next.err
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func consumeScripted(t *testing.T, reader *scriptedReader, h Handler) {
	t.Helper()
	bus := NewKafkaBus(KafkaConfig{Brokers: []string{"localhost:9092"}, FetchBackoff: time.Millisecond}, logger.Discard())

	done := make(chan error, 1)
	go func() { done <- bus.consume(context.Background(), testSub, reader, h, logger.Discard()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after the reader closed")
	}
}

func TestKafkaBus_ConsumeStopsOnClosedReader(t *testing.T) {
	reader := &scriptedReader{}
	calls := 0
	consumeScripted(t, reader, func(context.Context, Message) error { calls++; return nil })

	assert.Equal(t, 1, reader.fetches)
	assert.Zero(t, calls)
}

func TestKafkaBus_ConsumeBacksOffAfterFetchError(t *testing.T) {
	item := toKafka(Message{Exchange: "order_events", RoutingKey: "order.item.created", Key: "I1", Body: []byte(`{}`)})
	other := toKafka(Message{Exchange: "order_events", RoutingKey: "order.created", Key: "O1", Body: []byte(`{}`)})
	reader := &scriptedReader{results: []fetchResult{
		{err: errors.New("broker not available")},
		{msg: item},
		{msg: other},
	}}

	var keys []string
	consumeScripted(t, reader, func(_ context.Context, msg Message) error {
		keys = append(keys, msg.Key)
		return nil
	})

	assert.Equal(t, []string{"I1"}, keys, "unbound routing keys skip the handler")
	assert.Equal(t, 4, reader.fetches)
	require.Len(t, reader.committed, 2)
}
