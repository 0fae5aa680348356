// Package telemetry exports trace spans for proof verification and epoch management.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName  = "reclaim"
	TracerName   = "github.com/colorfulnotion/reclaim"
	serviceAttrK = "service.name"
)

// TelemetryClient owns the tracer provider for the lifetime of the process.
type TelemetryClient struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	disabled bool // if true, spans are dropped (no-op)
}

// NewNoOpTelemetryClient creates a disabled telemetry client that does nothing
func NewNoOpTelemetryClient() *TelemetryClient {
	return &TelemetryClient{
		tracer:   noop.NewTracerProvider().Tracer(TracerName),
		disabled: true,
	}
}

// NewTelemetryClient exports spans over OTLP/HTTP to endpoint (host:port). The exporter
// connects lazily, so an unreachable collector only shows up when spans are flushed.
func NewTelemetryClient(ctx context.Context, endpoint string) (*TelemetryClient, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter for %s: %w", endpoint, err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String(serviceAttrK, ServiceName))),
	)
	return NewTelemetryClientWithProvider(provider), nil
}

// NewTelemetryClientWithProvider wraps an existing provider, e.g. one feeding a span recorder.
func NewTelemetryClientWithProvider(provider *sdktrace.TracerProvider) *TelemetryClient {
	return &TelemetryClient{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}
}

// Tracer returns the tracer spans should be started from.
func (c *TelemetryClient) Tracer() trace.Tracer {
	return c.tracer
}

// Enabled reports whether spans are exported.
func (c *TelemetryClient) Enabled() bool {
	return !c.disabled
}

// SetGlobal installs the provider as the process-wide otel tracer provider.
func (c *TelemetryClient) SetGlobal() {
	if c.disabled {
		return
	}
	otel.SetTracerProvider(c.provider)
}

// Close flushes pending spans and shuts the provider down.
func (c *TelemetryClient) Close(ctx context.Context) error {
	if c.disabled || c.provider == nil {
		return nil
	}
	return c.provider.Shutdown(ctx)
}
