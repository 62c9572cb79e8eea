package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/syncengine/job"
)

// tracerName is the instrumentation scope name for syncengine tracing.
const tracerName = "github.com/xraph/syncengine"

// Tracing returns middleware that wraps each attempt in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: sync.job.id, sync.command, sync.conversation_id,
// sync.attempt, sync.optional. On failure the span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) job.Result {
		ctx, span := tracer.Start(ctx, "sync.job.attempt",
			trace.WithAttributes(
				attribute.String("sync.job.id", j.ID.String()),
				attribute.String("sync.command", j.Request.Command),
				attribute.String("sync.conversation_id", j.Request.ConversationID),
				attribute.Int("sync.attempt", j.Attempts),
				attribute.Bool("sync.optional", j.Optional),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		res := next(ctx)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetAttributes(attribute.Bool("sync.retryable", res.Retryable))
			span.SetStatus(codes.Error, res.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return res
	}
}
