// Package observability provides OpenTelemetry tracing and metrics for the
// ntfy client.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryConfig configures the telemetry provider.
type TelemetryConfig struct {
	ServiceName    string            `json:"service_name"`
	ServiceVersion string            `json:"service_version"`
	Environment    string            `json:"environment"`
	OTLPEndpoint   string            `json:"otlp_endpoint"`
	OTLPHeaders    map[string]string `json:"otlp_headers"`
	TracingEnabled bool              `json:"tracing_enabled"`
	MetricsEnabled bool              `json:"metrics_enabled"`
	SampleRate     float64           `json:"sample_rate"`
	Enabled        bool              `json:"enabled"`
}

// TelemetryProvider provides observability features
type TelemetryProvider struct {
	config        *TelemetryConfig
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider

	// Metrics
	messagesPublished metric.Int64Counter
	messagesReceived  metric.Int64Counter
	publishFailed     metric.Int64Counter
	publishDuration   metric.Float64Histogram
	streamDuration    metric.Float64Histogram
}

// NewTelemetryProvider creates a new telemetry provider
func NewTelemetryProvider(cfg *TelemetryConfig) (*TelemetryProvider, error) {
	if cfg == nil {
		cfg = &TelemetryConfig{
			ServiceName:    "ntfygo",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			OTLPEndpoint:   "http://localhost:4318",
			TracingEnabled: true,
			MetricsEnabled: true,
			SampleRate:     1.0,
			Enabled:        false,
		}
	}

	tp := &TelemetryProvider{
		config: cfg,
	}

	if !cfg.Enabled {
		// Return no-op provider
		tp.tracer = otel.Tracer("ntfygo")
		tp.meter = otel.Meter("ntfygo")
		return tp, nil
	}

	// Initialize tracing
	if cfg.TracingEnabled {
		if err := tp.initTracing(); err != nil {
			return nil, fmt.Errorf("init tracing: %v", err)
		}
	}

	// Initialize metrics
	if cfg.MetricsEnabled {
		if err := tp.initMetrics(); err != nil {
			return nil, fmt.Errorf("init metrics: %v", err)
		}
	}

	return tp, nil
}

// initTracing initializes OpenTelemetry tracing
func (tp *TelemetryProvider) initTracing() error {
	// Create resource
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(tp.config.ServiceName),
			semconv.ServiceVersion(tp.config.ServiceVersion),
			semconv.DeploymentEnvironment(tp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %v", err)
	}

	// Create OTLP HTTP exporter
	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(tp.config.OTLPEndpoint),
			otlptracehttp.WithHeaders(tp.config.OTLPHeaders),
		),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %v", err)
	}

	// Create trace provider
	tp.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(tp.config.SampleRate)),
	)

	// Set global trace provider
	otel.SetTracerProvider(tp.traceProvider)

	// Set global propagator
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// Get tracer
	tp.tracer = otel.Tracer("ntfygo",
		trace.WithInstrumentationVersion("1.0.0"),
		trace.WithSchemaURL(semconv.SchemaURL),
	)

	return nil
}

// initMetrics initializes OpenTelemetry metrics
func (tp *TelemetryProvider) initMetrics() error {
	// Get meter
	tp.meter = otel.Meter("ntfygo",
		metric.WithInstrumentationVersion("1.0.0"),
		metric.WithSchemaURL(semconv.SchemaURL),
	)

	var err error

	// Create counters
	tp.messagesPublished, err = tp.meter.Int64Counter(
		"ntfy_messages_published_total",
		metric.WithDescription("Total number of messages published"),
	)
	if err != nil {
		return fmt.Errorf("create messages_published counter: %v", err)
	}

	tp.messagesReceived, err = tp.meter.Int64Counter(
		"ntfy_messages_received_total",
		metric.WithDescription("Total number of messages received from subscriptions"),
	)
	if err != nil {
		return fmt.Errorf("create messages_received counter: %v", err)
	}

	tp.publishFailed, err = tp.meter.Int64Counter(
		"ntfy_publish_failed_total",
		metric.WithDescription("Total number of failed publishes"),
	)
	if err != nil {
		return fmt.Errorf("create publish_failed counter: %v", err)
	}

	// Create histograms
	tp.publishDuration, err = tp.meter.Float64Histogram(
		"ntfy_publish_duration_seconds",
		metric.WithDescription("Duration of publish operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create publish_duration histogram: %v", err)
	}

	tp.streamDuration, err = tp.meter.Float64Histogram(
		"ntfy_stream_duration_seconds",
		metric.WithDescription("Lifetime of subscription streams"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create stream_duration histogram: %v", err)
	}

	return nil
}

// TraceOperation creates a new span for an operation
func (tp *TelemetryProvider) TraceOperation(ctx context.Context, operationName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	if tp == nil || tp.tracer == nil {
		// Return no-op span
		return ctx, trace.SpanFromContext(ctx)
	}

	return tp.tracer.Start(ctx, operationName,
		trace.WithAttributes(attributes...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// TracePublish creates a span for publishing a message to a topic
func (tp *TelemetryProvider) TracePublish(ctx context.Context, topic string) (context.Context, trace.Span) {
	attributes := []attribute.KeyValue{
		attribute.String("ntfy.topic", topic),
		attribute.String("ntfy.operation", "publish"),
	}

	return tp.TraceOperation(ctx, "ntfy.publish", attributes...)
}

// TraceSubscribe creates a span for a subscription stream
func (tp *TelemetryProvider) TraceSubscribe(ctx context.Context, topics []string, poll bool) (context.Context, trace.Span) {
	operation := "subscribe"
	if poll {
		operation = "poll"
	}
	attributes := []attribute.KeyValue{
		attribute.StringSlice("ntfy.topics", topics),
		attribute.String("ntfy.operation", operation),
	}

	return tp.TraceOperation(ctx, "ntfy."+operation, attributes...)
}

// RecordPublished records a successful publish
func (tp *TelemetryProvider) RecordPublished(ctx context.Context, topic string, duration time.Duration) {
	if tp == nil {
		return
	}
	if tp.messagesPublished != nil {
		tp.messagesPublished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("status", "success"),
		))
	}

	if tp.publishDuration != nil {
		tp.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("status", "success"),
		))
	}
}

// RecordPublishFailed records a failed publish
func (tp *TelemetryProvider) RecordPublishFailed(ctx context.Context, topic string, duration time.Duration, errorType string) {
	if tp == nil {
		return
	}
	if tp.publishFailed != nil {
		tp.publishFailed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("error_type", errorType),
		))
	}

	if tp.publishDuration != nil {
		tp.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("status", "error"),
		))
	}
}

// RecordReceived records messages yielded by a subscription
func (tp *TelemetryProvider) RecordReceived(ctx context.Context, count int64) {
	if tp == nil {
		return
	}
	if tp.messagesReceived != nil {
		tp.messagesReceived.Add(ctx, count)
	}
}

// RecordStreamDuration records the lifetime of a finished stream
func (tp *TelemetryProvider) RecordStreamDuration(ctx context.Context, duration time.Duration, outcome string) {
	if tp == nil {
		return
	}
	if tp.streamDuration != nil {
		tp.streamDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

// SetSpanError sets an error on the current span
func (tp *TelemetryProvider) SetSpanError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks the span as successful
func (tp *TelemetryProvider) SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// Shutdown gracefully shuts down the telemetry provider
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	if tp != nil && tp.traceProvider != nil {
		return tp.traceProvider.Shutdown(ctx)
	}
	return nil
}

// GetTracer returns the tracer instance
func (tp *TelemetryProvider) GetTracer() trace.Tracer {
	return tp.tracer
}

// GetMeter returns the meter instance
func (tp *TelemetryProvider) GetMeter() metric.Meter {
	return tp.meter
}
