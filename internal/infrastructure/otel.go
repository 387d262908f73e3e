package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"crmbridge/internal/config"
)

const (
	ServiceName    = "crmbridge"
	ServiceVersion = "v1.0.0"
	MeterName      = "crmbridge"
)

// OTelProviders holds the OpenTelemetry providers backing a single
// pipeline run.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Logger         *slog.Logger

	traceFile *os.File
}

// InitializeOTel wires tracing and metrics for one pipeline run. Spans
// go to a JSON trace file and metrics accumulate in a private registry
// that MetricsSnapshot exposes when the run finishes. When disabled it
// returns no-op providers so call sites never branch.
func InitializeOTel(cfg config.ObservabilityConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}

	providers := &OTelProviders{Logger: logger}

	if !cfg.Enabled {
		providers.Tracer = nooptrace.NewTracerProvider().Tracer(MeterName)
		providers.Meter = noopmetric.NewMeterProvider().Meter(MeterName)
		return providers, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Info("observability initialized",
		slog.String("trace_file", cfg.TraceFile))

	return providers, nil
}

// initializeTracing sets up a tracer provider writing spans to the
// configured trace file.
func initializeTracing(cfg config.ObservabilityConfig, res *resource.Resource, providers *OTelProviders) error {
	if dir := filepath.Dir(cfg.TraceFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create trace directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trace file %s: %w", cfg.TraceFile, err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(file),
	)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	providers.traceFile = file

	return nil
}

// initializeMetrics sets up a meter provider backed by a private
// Prometheus registry. Nothing listens on HTTP; the registry is
// gathered once at the end of the run.
func initializeMetrics(res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
	providers.Registry = registry

	return nil
}

// PipelineMetrics holds the instruments recorded while the pipeline
// runs.
type PipelineMetrics struct {
	StageExecutionsTotal metric.Int64Counter
	StageDuration        metric.Float64Histogram
	StageErrors          metric.Int64Counter
	RowsIngested         metric.Int64Counter
	RowsMatched          metric.Int64Counter
	RowsDropped          metric.Int64Counter
	RowsWritten          metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on the given
// meter. Works against no-op meters as well.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stageExecutions, err := meter.Int64Counter(
		"pipeline_stage_executions_total",
		metric.WithDescription("Total number of pipeline stage executions"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Pipeline stage execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"pipeline_stage_errors_total",
		metric.WithDescription("Total number of pipeline stage errors"),
	)
	if err != nil {
		return nil, err
	}

	rowsIngested, err := meter.Int64Counter(
		"pipeline_rows_ingested_total",
		metric.WithDescription("Total number of activity rows ingested"),
	)
	if err != nil {
		return nil, err
	}

	rowsMatched, err := meter.Int64Counter(
		"pipeline_rows_matched_total",
		metric.WithDescription("Total number of activity rows matched to a customer"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"pipeline_rows_dropped_total",
		metric.WithDescription("Total number of activity rows dropped as unmatched"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"pipeline_rows_written_total",
		metric.WithDescription("Total number of import rows written to the output file"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		StageExecutionsTotal: stageExecutions,
		StageDuration:        stageDuration,
		StageErrors:          stageErrors,
		RowsIngested:         rowsIngested,
		RowsMatched:          rowsMatched,
		RowsDropped:          rowsDropped,
		RowsWritten:          rowsWritten,
	}, nil
}

// RecordStageMetrics records execution count, duration and errors for
// one pipeline stage.
func RecordStageMetrics(ctx context.Context, metrics *PipelineMetrics, stageID string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("stage.id", stageID),
	}

	metrics.StageExecutionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	if err != nil {
		errorAttrs := append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))
		metrics.StageErrors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	}
}

// MetricsSnapshot gathers the private registry into a flat name/value
// map for the run summary. Counters report their value, histograms
// their sample count. Returns an empty map when metrics are disabled.
func (p *OTelProviders) MetricsSnapshot() (map[string]float64, error) {
	snapshot := make(map[string]float64)
	if p.Registry == nil {
		return snapshot, nil
	}

	families, err := p.Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				snapshot[family.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				snapshot[family.GetName()] += float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				snapshot[family.GetName()] += m.GetGauge().GetValue()
			}
		}
	}

	return snapshot, nil
}

// Shutdown flushes and shuts down the providers and closes the trace
// file.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceFile != nil {
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		p.traceFile = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("observability shutdown errors: %v", errs)
	}

	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent(name, trace.WithAttributes(mapToAttributes(attributes)...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(mapToAttributes(attributes)...)
}

func mapToAttributes(attributes map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}
