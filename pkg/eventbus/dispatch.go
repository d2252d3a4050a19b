package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/shopmesh/pkg/tracing"
)

const tracerName = "github.com/utafrali/shopmesh/pkg/eventbus"

// dispatch runs h for one delivery and returns the settlement action along
// with the handler error. Panics become transient errors.
func dispatch(ctx context.Context, queue string, h Handler, msg Message, logger *slog.Logger) (action Action, err error) {
	ctx = tracing.ExtractHeaders(ctx, msg.Headers)
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "consume "+msg.RoutingKey,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Exchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", msg.RoutingKey),
			attribute.String("messaging.message.id", msg.Key),
			attribute.String("messaging.consumer.group.name", queue),
		),
	)
	defer span.End()

	start := time.Now()
	err = safeHandle(ctx, h, msg)
	handleDuration.WithLabelValues(queue).Observe(time.Since(start).Seconds())

	action = Settle(err)
	consumedTotal.WithLabelValues(queue, action.String()).Inc()
	span.SetAttributes(attribute.String("messaging.settlement", action.String()))

	attrs := []any{
		slog.String("queue", queue),
		slog.String("routing_key", msg.RoutingKey),
		slog.String("message_key", msg.Key),
	}
	switch action {
	case Ack:
		logger.DebugContext(ctx, "event processed", attrs...)
	case Drop:
		span.SetStatus(codes.Error, "malformed")
		logger.ErrorContext(ctx, "dropping malformed event", append(attrs, slog.String("error", err.Error()))...)
	case Park:
		logger.WarnContext(ctx, "prerequisite missing, parking event", append(attrs, slog.String("reason", err.Error()))...)
	case Requeue:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "event handler failed, requeueing", append(attrs, slog.String("error", err.Error()))...)
	}
	return action, err
}

func safeHandle(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, msg)
}

// Dedupe wraps h with a seen-set fast path. key returns the dedupe key for a
// message, or "" when the message must always be processed (updates and
// deletes). The key is recorded only after h succeeds or skips as duplicate.
func Dedupe(seen *SeenSet, queue string, key func(Message) string, h Handler) Handler {
	return func(ctx context.Context, msg Message) error {
		k := key(msg)
		if k == "" {
			return h(ctx, msg)
		}
		if seen.Seen(k) {
			duplicatesTotal.WithLabelValues(queue).Inc()
			return nil
		}
		if err := h(ctx, msg); err != nil {
			return err
		}
		seen.Add(k)
		return nil
	}
}
