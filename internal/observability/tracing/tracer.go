package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the feedstream application.
var tracer = otel.Tracer("feedstream")

// GetTracer returns the global tracer for creating spans.
func GetTracer() trace.Tracer {
	return tracer
}

// InitTracer installs an SDK TracerProvider as the global provider, tagged
// with serviceName, and returns a shutdown func the caller must run before
// exit to flush any buffered spans. No exporter is attached: spans are
// sampled and recorded in-process but not shipped anywhere, the same
// "capability present, exporter pluggable later" posture spec.md's ambient
// observability section takes for logging/metrics.
func InitTracer(serviceName string) (shutdown func(context.Context) error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
