// Package observability wraps OpenTelemetry tracing around the checker's
// three pipeline phases (parse, replay, audit). It intentionally carries a
// single backend, unlike a production service's fan-out to metrics vendors:
// a one-shot batch CLI has nothing to push to outside of the textfile
// collector the metrics package already owns.
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityConfig configures the tracer. It carries only what a
// single-process batch run needs: whether tracing is on at all, and the
// resource attributes attached to every span.
type ObservabilityConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
}

// TelemetryProvider owns the OTel tracer used to span the parse/replay/audit
// phases of a single checker run.
type TelemetryProvider struct {
	config       *ObservabilityConfig
	logger       *slog.Logger
	tracer       trace.Tracer
	provider     *sdktrace.TracerProvider
	errorCounter metric.Int64Counter
}

// NewTelemetryProvider builds a TelemetryProvider. When disabled, it
// returns a provider backed by the global no-op tracer so callers never
// need to nil-check before calling Start.
func NewTelemetryProvider(config *ObservabilityConfig, logger *slog.Logger) (*TelemetryProvider, error) {
	if !config.Enabled {
		tp := &TelemetryProvider{config: config, logger: logger, tracer: otel.Tracer("tracecheck")}
		tp.errorCounter, _ = otel.Meter("tracecheck").Int64Counter(
			"tracecheck.violations",
			metric.WithDescription("checker violations recorded, by category"),
		)
		return tp, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", config.ServiceName),
		attribute.String("deployment.environment", config.Environment),
	))
	if err != nil {
		return nil, err
	}

	// A TracerProvider with no registered span processor still creates and
	// ends valid spans; it simply has nothing to export them to. No
	// exporter (OTLP, stdout, ...) is attached here.
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	tp := &TelemetryProvider{
		config:   config,
		logger:   logger,
		tracer:   provider.Tracer("tracecheck"),
		provider: provider,
	}
	tp.errorCounter, err = otel.Meter("tracecheck").Int64Counter(
		"tracecheck.violations",
		metric.WithDescription("checker violations recorded, by category"),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("telemetry provider initialized",
		slog.String("service", config.ServiceName),
		slog.String("environment", config.Environment))

	return tp, nil
}

// Start begins a span for the named phase and returns a function that ends
// it; it satisfies internal/checker.Tracer.
func (tp *TelemetryProvider) Start(ctx context.Context, name string) (context.Context, func()) {
	spanCtx, span := tp.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("service.name", tp.config.ServiceName),
	))
	return spanCtx, func() { span.End() }
}

// RecordErrors adds count violations of the given category to the
// tracecheck.violations counter. A nil counter (construction failed, or the
// no-op meter returned one that silently discards) makes this a no-op.
func (tp *TelemetryProvider) RecordErrors(ctx context.Context, category string, count int) {
	if tp.errorCounter == nil || count == 0 {
		return
	}
	tp.errorCounter.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("category", category),
	))
}

// Shutdown flushes and releases the underlying TracerProvider, if one was
// created.
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}
