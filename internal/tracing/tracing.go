// Package tracing wires the library's optional OpenTelemetry tracer: a
// no-op provider by default, swappable via client.WithTracer for callers
// who run a real collector.
package tracing

import (
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans this library emits in a multi-library trace.
const tracerName = "github.com/greaka/gw2lib"

// NoopTracer returns a tracer that creates spans nobody records, the
// default every Client starts with.
func NoopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer(tracerName)
}

// FromProvider derives a tracer from a caller-supplied provider, for use
// with client.WithTracer(tracing.FromProvider(myProvider)).
func FromProvider(provider trace.TracerProvider) trace.Tracer {
	return provider.Tracer(tracerName)
}
