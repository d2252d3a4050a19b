package eventbus

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a message that can never be processed, such as a
	// body that does not parse. The message is dropped without requeue.
	ErrMalformed = errors.New("eventbus: malformed message")

	// ErrSkip marks a message whose prerequisite entity is not present
	// locally yet. The message is acknowledged and parked for replay.
	ErrSkip = errors.New("eventbus: prerequisite missing")
)

// Malformed wraps err as a permanent failure.
func Malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

// Skip builds a skip error with reason.
func Skip(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}

// Action is how a delivery is settled with the broker.
type Action int

const (
	// Ack removes the message from the queue.
	Ack Action = iota
	// Drop rejects the message without requeue.
	Drop
	// Park acknowledges the message and copies it to the parking exchange.
	Park
	// Requeue rejects the message and asks the broker to redeliver it.
	Requeue
)

func (a Action) String() string {
	switch a {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	case Park:
		return "park"
	case Requeue:
		return "requeue"
	default:
		return "unknown"
	}
}

// Settle maps a handler result to a settlement action.
func Settle(err error) Action {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, ErrMalformed):
		return Drop
	case errors.Is(err, ErrSkip):
		return Park
	default:
		return Requeue
	}
}

// ParkExchange receives acknowledged messages that were skipped for a
// missing prerequisite. A reconciliation job can replay them from there.
const ParkExchange = "events.parked"

// Headers added to parked messages.
const (
	HeaderOriginalExchange   = "x-original-exchange"
	HeaderOriginalRoutingKey = "x-original-routing-key"
	HeaderParkedQueue        = "x-parked-queue"
	HeaderSkipReason         = "x-skip-reason"
)

// parked returns a copy of msg addressed to ParkExchange.
func parked(msg Message, queue string, reason error) Message {
	headers := make(map[string]string, len(msg.Headers)+4)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalExchange] = msg.Exchange
	headers[HeaderOriginalRoutingKey] = msg.RoutingKey
	headers[HeaderParkedQueue] = queue
	if reason != nil {
		headers[HeaderSkipReason] = reason.Error()
	}
	return Message{
		Exchange:   ParkExchange,
		RoutingKey: msg.RoutingKey,
		Key:        msg.Key,
		Body:       msg.Body,
		Headers:    headers,
	}
}
