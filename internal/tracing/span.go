package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRunSpan starts the root span covering a whole benchmark run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, backend, mode string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "stashbench.run",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("stashbench.backend", backend),
		attribute.String("stashbench.mode", mode),
	)
	return ctx, span
}

// StartOperationSpan starts a span for a single storage operation.
func StartOperationSpan(ctx context.Context, tracer trace.Tracer, backend, mode string, index int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, backend+" "+mode,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", backend),
		attribute.String("stashbench.mode", mode),
		attribute.Int("stashbench.index", index),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
