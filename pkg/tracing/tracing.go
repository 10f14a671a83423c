// Package tracing wraps OpenTelemetry spans for navigation and model calls.
//
// Spans are created from the global tracer provider. Configure it in main
// before building the router:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// Without a configured provider every span is a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for every span.
const TracerName = "github.com/eventum-app/eventum"

// Attribute keys.
const (
	KeyPath   = attribute.Key("eventum.path")
	KeyRoute  = attribute.Key("eventum.route")
	KeyOp     = attribute.Key("eventum.model.op")
	KeyStatus = attribute.Key("eventum.http.status")
	KeyUserID = attribute.Key("eventum.user_id")
)

// Tracer returns the tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Start begins a client-side span.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span, sets its status, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
