package eventbus

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/shopmesh/pkg/tracing"
)

// startPublish opens a producer span, copies msg with the trace context
// injected into its headers, and returns a func that records the outcome.
func startPublish(ctx context.Context, driver string, msg Message) (context.Context, Message, func(error)) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "publish "+msg.RoutingKey,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", driver),
			attribute.String("messaging.destination.name", msg.Exchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", msg.RoutingKey),
			attribute.String("messaging.message.id", msg.Key),
		),
	)

	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	tracing.InjectHeaders(ctx, headers)
	msg.Headers = headers

	start := time.Now()
	return ctx, msg, func(err error) {
		publishDuration.WithLabelValues(driver, msg.Exchange).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		publishedTotal.WithLabelValues(driver, msg.Exchange, outcome).Inc()
		span.End()
	}
}
