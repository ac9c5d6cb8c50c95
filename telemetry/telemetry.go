// Package telemetry installs an optional OpenTelemetry TracerProvider
// for describing a build's timeline to an external collector
// (SPEC_FULL.md §4.N). With no endpoint configured a no-op tracer is
// installed and spans are free; this is an observability concern, not
// a distributed-execution one — spec.md's Non-goal of "distributed
// execution" rules out running compiles on other machines, not
// describing a local build's timeline to a collector.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Provider wraps a TracerProvider and its shutdown hook.
type Provider struct {
	tp       trace.TracerProvider
	shutdown func(context.Context) error
}

// Tracer returns the "ccm" tracer — a no-op if no endpoint was configured.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer("github.com/ccmhq/ccm")
}

// Shutdown flushes and closes the exporter, if one was installed.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// New installs a TracerProvider exporting spans over OTLP/gRPC to
// endpoint. An empty endpoint installs a no-op tracer — the default
// when --otlp-endpoint is unset.
func New(ctx context.Context, endpoint string) (*Provider, error) {
	if endpoint == "" {
		return &Provider{tp: trace.NewNoopTracerProvider()}, nil
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial %s: %w", endpoint, err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("telemetry: construct exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes())
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{
		tp: tp,
		shutdown: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	}, nil
}
