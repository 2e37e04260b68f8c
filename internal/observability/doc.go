// Package observability exposes engine activity as Prometheus metrics and
// OpenTelemetry spans.
//
// EngineCollector is an engine.Observer; register it with
// engine.WithObserver and gather from the registry it was built with.
// TraceRun wraps one engine.Run call in a span.
package observability
