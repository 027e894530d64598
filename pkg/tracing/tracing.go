package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer registers the process-wide tracer. Init calls this; tests leave
// it nil and every span becomes a no-op.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a span with the given name. With no tracer registered it
// returns the context unchanged and the (no-op) span already on it.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// GetTraceID returns the active trace id, or "" when nothing is recording.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}
