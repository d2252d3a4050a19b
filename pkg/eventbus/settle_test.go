package eventbus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Action
	}{
		{"success", nil, Ack},
		{"malformed", Malformed(errors.New("unexpected end of JSON input")), Drop},
		{"wrapped malformed", fmt.Errorf("order item: %w", Malformed(errors.New("bad"))), Drop},
		{"skip", Skip("shop %s not found", "s1"), Park},
		{"transient", errors.New("connection reset by peer"), Requeue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Settle(tt.err))
		})
	}
}

func TestMalformedKeepsCause(t *testing.T) {
	cause := errors.New("cause")
	err := Malformed(cause)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, cause)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "ack", Ack.String())
	assert.Equal(t, "drop", Drop.String())
	assert.Equal(t, "park", Park.String())
	assert.Equal(t, "requeue", Requeue.String())
	assert.Equal(t, "unknown", Action(42).String())
}

func TestParked_CarriesOrigin(t *testing.T) {
	msg := Message{
		Exchange:   "order_events",
		RoutingKey: "order.item.created",
		Key:        "17",
		Body:       []byte(`{"order_item_id":17}`),
		Headers:    map[string]string{"traceparent": "00-abc"},
	}

	p := parked(msg, "shop_order_items_queue", Skip("shop s1 not found"))

	assert.Equal(t, ParkExchange, p.Exchange)
	assert.Equal(t, msg.RoutingKey, p.RoutingKey)
	assert.Equal(t, msg.Body, p.Body)
	require.NotNil(t, p.Headers)
	assert.Equal(t, "order_events", p.Headers[HeaderOriginalExchange])
	assert.Equal(t, "order.item.created", p.Headers[HeaderOriginalRoutingKey])
	assert.Equal(t, "shop_order_items_queue", p.Headers[HeaderParkedQueue])
	assert.Contains(t, p.Headers[HeaderSkipReason], "shop s1 not found")
	assert.Equal(t, "00-abc", p.Headers["traceparent"])
	_, leaked := msg.Headers[HeaderSkipReason]
	assert.False(t, leaked, "original headers must not be mutated")
}

func TestSubscriptionValidate(t *testing.T) {
	valid := Subscription{Exchange: "shop_events", Queue: "q", Bindings: []string{"shop.*"}}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, 1, valid.prefetch())

	noBindings := valid
	noBindings.Bindings = nil
	assert.Error(t, noBindings.Validate())

	noQueue := valid
	noQueue.Queue = ""
	assert.Error(t, noQueue.Validate())
}
