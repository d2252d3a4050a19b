package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/utafrali/shopmesh/pkg/eventbus"
	"github.com/utafrali/shopmesh/pkg/logger"
)

const defaultPublishTimeout = 5 * time.Second

// Emitter publishes domain events on behalf of a service. Publishing is best
// effort: a failure is logged and never returned, so the business operation
// that triggered the event is not rolled back.
type Emitter struct {
	publisher eventbus.Publisher
	source    string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewEmitter creates an emitter for the named source service.
func NewEmitter(publisher eventbus.Publisher, source string, logger *slog.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		source:    source,
		timeout:   defaultPublishTimeout,
		logger:    logger,
	}
}

// Emit serializes payload and publishes it on exchange with routingKey.
// key is the entity id. The publish outlives cancellation of ctx but is
// bounded by the emitter timeout. It reports whether the broker accepted
// the event.
func (e *Emitter) Emit(ctx context.Context, exchange, routingKey, key string, payload any) bool {
	log := logger.WithContext(ctx, e.logger).With(
		slog.String("exchange", exchange),
		slog.String("routing_key", routingKey),
		slog.String("key", key),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		log.ErrorContext(ctx, "marshal event failed", slog.String("error", err.Error()))
		return false
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	headers := map[string]string{"x-source-service": e.source}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		headers["x-correlation-id"] = id
	}

	err = e.publisher.Publish(pubCtx, eventbus.Message{
		Exchange:   exchange,
		RoutingKey: routingKey,
		Key:        key,
		Body:       body,
		Headers:    headers,
	})
	if err != nil {
		log.ErrorContext(ctx, "publish event failed", slog.String("error", err.Error()))
		return false
	}
	log.InfoContext(ctx, "event published")
	return true
}
