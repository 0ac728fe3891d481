package burl

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// headerCarrier adapts a Header to otel's propagation.TextMapCarrier so
// traceparent/tracestate can be injected with the standard
// propagation.TraceContext propagator instead of hand-rolled parsing.
type headerCarrier Header

func (c headerCarrier) Get(key string) string {
	return Header(c).Get(key)
}

func (c headerCarrier) Set(key, value string) {
	Header(c).Set(key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

var traceContextPropagator = propagation.TraceContext{}

// injectTraceContext writes the span context carried by ctx into h as
// traceparent/tracestate headers, a no-op when ctx carries no span.
func injectTraceContext(ctx context.Context, h Header) {
	traceContextPropagator.Inject(ctx, headerCarrier(h))
}

func tracer() trace.Tracer {
	return otel.Tracer("github.com/vinniefalco/burl")
}

// startAttempt opens a span for one redirect-chain hop. The caller
// must End() the returned span, setting an http.status_code attribute
// first once the hop's response is known.
func startAttempt(ctx context.Context, method string, url string, attempt int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "burl.attempt", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
		attribute.Int("http.attempt", attempt),
	))
}
