// Package tracing wraps the GReader HTTP surface in OpenTelemetry spans,
// grounded on the teacher's internal/observability/tracing package: a
// single global tracer plus an http.Handler middleware that extracts
// incoming W3C trace context, starts a server span per request, and
// echoes the trace id back on X-Trace-Id.
//
// InitTracer wires an SDK TracerProvider (the teacher only ever builds
// one inside its tests); without it every span created by Middleware
// would be a no-op recorded against the default global provider.
package tracing
