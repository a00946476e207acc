// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	"award-engine/internal/common/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers. Meter
// readings are exported through the default Prometheus registry.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	evalCounter    otelmetric.Int64Counter
}

// New installs global meter and tracer providers for serviceName. When the
// exporter cannot be created the returned value records nothing. Spans are
// shipped to Jaeger when tracing is enabled.
func New(serviceName string, tracing config.TracingConfig) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{tracer: otel.Tracer(serviceName)}, err
	}

	var spans sdktrace.SpanExporter
	if tracing.Enabled {
		spans, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(tracing.JaegerEndpoint)))
		if err != nil {
			return &Observability{tracer: otel.Tracer(serviceName)}, fmt.Errorf("failed to create jaeger exporter: %w", err)
		}
	}

	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	tp := NewTracerProvider(serviceName, tracing.SampleRatio, spans)
	otel.SetTracerProvider(tp)

	meter := mp.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"zeebe.jobs.processed",
		otelmetric.WithDescription("Number of workflow jobs processed"),
	)
	jobDuration, _ := meter.Float64Histogram(
		"zeebe.jobs.duration",
		otelmetric.WithDescription("Workflow job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	evalCounter, _ := meter.Int64Counter(
		"award.evaluations",
		otelmetric.WithDescription("Number of evaluations by outcome"),
	)

	return &Observability{
		meterProvider:  mp,
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
		evalCounter:    evalCounter,
	}, nil
}

// NewTracerProvider samples ratio of root traces and batches them to
// exporter. A nil exporter keeps spans for propagation only.
func NewTracerProvider(serviceName string, ratio float64, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// Tracer returns the service tracer.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("award-engine")
	}
	return o.tracer
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
	))
}

func (o *Observability) RecordEvaluation(ctx context.Context, trigger, outcome string) {
	if o == nil || o.evalCounter == nil {
		return
	}
	o.evalCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
