// Package telemetry initializes OpenTelemetry tracing and metrics exporters,
// and defines the scheduler's instruments.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of every crewsim meter and tracer.
const ScopeName = "github.com/joeycumines/crew-scheduler"

// Shutdown flushes and stops the providers installed by Init.
type Shutdown func(ctx context.Context) error

// Init configures the global OpenTelemetry tracer and meter providers,
// exporting over OTLP/HTTP to endpoint. If endpoint is empty, telemetry is
// disabled and the global no-op providers stay in place.
func Init(ctx context.Context, endpoint, serviceName, version string, insecure bool) (Shutdown, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
	}
	traceExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("telemetry: create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Meter returns the global crewsim meter.
func Meter() metric.Meter {
	return otel.GetMeterProvider().Meter(ScopeName)
}

// Tracer returns the global crewsim tracer.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(ScopeName)
}

// Instruments are the scheduler metrics recorded by the simulation.
type Instruments struct {
	// Ticks counts simulation steps.
	Ticks metric.Int64Counter
	// Selected counts, per agent tick, the kind of the objective that ran.
	Selected metric.Int64Counter
	// Retired counts objectives dropped (or rebuilt) after reaching a
	// terminal state.
	Retired metric.Int64Counter
	// AgentErrors counts per-agent failures isolated by the simulation.
	AgentErrors metric.Int64Counter
	// LoopTargets records the tracked target count of loop objectives.
	LoopTargets metric.Int64Histogram
}

// NewInstruments creates the scheduler instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		i   Instruments
		err error
	)
	if i.Ticks, err = meter.Int64Counter("crew.ticks",
		metric.WithDescription("Simulation steps executed."),
		metric.WithUnit("{tick}")); err != nil {
		return nil, fmt.Errorf("telemetry: crew.ticks: %w", err)
	}
	if i.Selected, err = meter.Int64Counter("crew.objective.selected",
		metric.WithDescription("Agent ticks by selected objective kind."),
		metric.WithUnit("{tick}")); err != nil {
		return nil, fmt.Errorf("telemetry: crew.objective.selected: %w", err)
	}
	if i.Retired, err = meter.Int64Counter("crew.objective.retired",
		metric.WithDescription("Objectives retired after completing or being abandoned."),
		metric.WithUnit("{objective}")); err != nil {
		return nil, fmt.Errorf("telemetry: crew.objective.retired: %w", err)
	}
	if i.AgentErrors, err = meter.Int64Counter("crew.agent.errors",
		metric.WithDescription("Per-agent scheduler failures, isolated from other agents."),
		metric.WithUnit("{error}")); err != nil {
		return nil, fmt.Errorf("telemetry: crew.agent.errors: %w", err)
	}
	if i.LoopTargets, err = meter.Int64Histogram("crew.loop.targets",
		metric.WithDescription("Targets tracked by loop objectives, sampled each tick."),
		metric.WithUnit("{target}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 16, 32)); err != nil {
		return nil, fmt.Errorf("telemetry: crew.loop.targets: %w", err)
	}
	return &i, nil
}
