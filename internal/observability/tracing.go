package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/roach88/ctslab/internal/engine"
)

const tracerName = "github.com/roach88/ctslab"

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool    `env:"ENABLED"`
	ServiceName string  `env:"SERVICE_NAME" envDefault:"ctslab"`
	Exporter    string  `env:"EXPORTER" envDefault:"stdout"` // stdout | none
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1"`
}

// InitTracing installs a global tracer provider. Spans go to w when the
// stdout exporter is selected. It returns a shutdown function that flushes
// spans.
func InitTracing(ctx context.Context, cfg TracingConfig, w io.Writer, log *slog.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = slog.Default()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug("tracing disabled; using noop tracer provider")
		return func(context.Context) error { return nil }, nil
	}

	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("tracing sample ratio %g outside [0,1]", cfg.SampleRatio)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	switch strings.ToLower(cfg.Exporter) {
	case "stdout", "":
		exp, err := stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithSyncer(exp))
	case "none":
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	opts = append(opts, sdktrace.WithResource(res))

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled",
		"exporter", cfg.Exporter,
		"service_name", cfg.ServiceName,
		"sample_ratio", cfg.SampleRatio,
	)

	return tp.Shutdown, nil
}

// ShutdownWithTimeout invokes shutdown with a bounded timeout, logging
// rather than returning failures.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log *slog.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}
}

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartRun opens the root span for one simulation. Pass the returned
// context to TraceRun so segments nest under it.
func StartRun(ctx context.Context, model string, seed int64) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "ctslab.run",
		trace.WithAttributes(
			attribute.String("model.name", model),
			attribute.Int64("model.seed", seed),
		),
	)
}

// TraceRun advances e to until inside an "engine.run" span recording the
// segment's start and end times and what it applied.
func TraceRun(ctx context.Context, e *engine.Engine, until float64) {
	before := e.Stats()
	_, span := Tracer().Start(ctx, "engine.run",
		trace.WithAttributes(
			attribute.Float64("sim.from", e.CurrentTime()),
			attribute.Float64("sim.until", until),
		),
	)
	defer span.End()

	e.Run(until)

	after := e.Stats()
	span.SetAttributes(
		attribute.Float64("sim.time", e.CurrentTime()),
		attribute.Int64("sim.applied", after.Applied-before.Applied),
		attribute.Int64("sim.stale", after.Stale-before.Stale),
		attribute.Int("sim.pending", after.Pending),
	)
}
