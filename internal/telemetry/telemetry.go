// Package telemetry wires intentd's tracer provider; no meter provider is
// built. The provider is installed as the global TracerProvider, which the
// HTTP transport's otelhttp wrapper uses for its request spans. The
// parser, planner, and executor do not start spans of their own.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/daqi-oss/intentd/internal/obslog"
)

// Provider owns the process-wide trace pipeline and makes shutdown
// idempotent.
type Provider struct {
	tracer        trace.Tracer
	traceProvider *sdktrace.TracerProvider
	shutdownOnce  sync.Once
}

// Config controls exporter selection. When Endpoint is empty, spans are
// written to stdout instead of shipped to a collector — useful for local
// runs and tests that don't want a live OTLP endpoint.
type Config struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

// NewProvider builds and installs the global tracer provider for
// serviceName, exporting to an OTLP/gRPC collector at cfg.Endpoint, or to
// stdout when no endpoint is configured.
func NewProvider(ctx context.Context, cfg Config, logger obslog.Logger) (*Provider, error) {
	if logger == nil {
		logger = obslog.NoOp{}
	}
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("telemetry: service name is required")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry provider started", map[string]interface{}{
		"service_name": cfg.ServiceName,
		"endpoint":     cfg.Endpoint,
	})

	return &Provider{
		tracer:        tp.Tracer(cfg.ServiceName),
		traceProvider: tp,
	}, nil
}

func newSpanExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("telemetry: build stdout exporter: %w", err)
		}
		return exp, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build otlp exporter: %w", err)
	}
	return exp, nil
}

// Tracer returns the tracer this provider installed.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// StartSpan is a convenience wrapper around Tracer().Start for call sites
// that don't otherwise need the trace package imported.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// Shutdown flushes pending spans and stops the exporter. Safe to call more
// than once.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		err = p.traceProvider.Shutdown(ctx)
	})
	return err
}
