package ecs

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer coordinates tracing spans for observability tooling. The
// default implementation is backed by the OpenTelemetry SDK so spans can
// be exported to any OTLP-native backend, SigNoz included.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, TraceSpan)
}

// TraceSpan represents an active tracing region.
type TraceSpan interface {
	End()
	SetError(err error)
}

// SigNozOptions configures the OTLP/gRPC exporter used to ship spans to
// a SigNoz (or any OTLP-compatible) collector.
type SigNozOptions struct {
	// Endpoint is the collector's OTLP/gRPC address, e.g. "localhost:4317".
	Endpoint string
	// Insecure disables TLS for the gRPC connection (typical for a
	// collector running as a sidecar or in the same cluster).
	Insecure bool
	// ServiceName is stamped on the OTel Resource as service.name.
	ServiceName string
}

func (o *SigNozOptions) withDefaults() SigNozOptions {
	if o == nil {
		return SigNozOptions{Endpoint: "localhost:4317", Insecure: true, ServiceName: "ecs-scheduler"}
	}
	out := *o
	if out.Endpoint == "" {
		out.Endpoint = "localhost:4317"
	}
	if out.ServiceName == "" {
		out.ServiceName = "ecs-scheduler"
	}
	return out
}

// NewOTLPTracerProvider builds an SDK TracerProvider exporting spans over
// OTLP/gRPC, suitable for SigNoz or any other OTLP collector. Callers own
// the returned provider's lifecycle and should call Shutdown(ctx) on app
// exit to flush any buffered spans.
func NewOTLPTracerProvider(ctx context.Context, opts *SigNozOptions) (*sdktrace.TracerProvider, error) {
	cfg := opts.withDefaults()

	dialOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		dialOpts = append(dialOpts, otlptracegrpc.WithInsecure())
	}
	client := otlptracegrpc.NewClient(dialOpts...)
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("service.instance.id", uuid.NewString()),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return provider, nil
}

// otelTracer adapts an OTel trace.Tracer to this package's Tracer
// interface, so scheduler internals never import go.opentelemetry.io
// directly outside this file.
type otelTracer struct {
	tracer oteltrace.Tracer
}

// NewOTelTracer wraps an OTel TracerProvider's named tracer.
func NewOTelTracer(provider oteltrace.TracerProvider, name string) Tracer {
	return otelTracer{tracer: provider.Tracer(name)}
}

func (t otelTracer) Start(ctx context.Context, name string) (context.Context, TraceSpan) {
	spanCtx, span := t.tracer.Start(ctx, name)
	return spanCtx, otelSpan{span: span}
}

type otelSpan struct {
	span oteltrace.Span
}

func (s otelSpan) End() { s.span.End() }

func (s otelSpan) SetError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetAttributes(attribute.Bool("error", true))
}

// noopTracer is used until a real tracer is supplied.
type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, name string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()            {}
func (noopSpan) SetError(error) {}
