package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crmbridge/internal/infrastructure"
)

// Tracer instruments a pipeline run: a span per stage plus the row
// counters the run summary reports. Built on whatever providers the
// caller initialized; with observability disabled everything here is a
// no-op.
type Tracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewTracer creates a pipeline tracer on the given providers.
func NewTracer(providers *infrastructure.OTelProviders) (*Tracer, error) {
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &Tracer{tracer: providers.Tracer, metrics: metrics}, nil
}

// StartRun opens the span covering the whole run.
func (t *Tracer) StartRun(ctx context.Context, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
}

// StartStage opens the span for one stage.
func (t *Tracer) StartStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("pipeline.stage.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// EndStage closes a stage span and records the stage metrics. The
// context is the one StartStage returned, so it carries the span.
func (t *Tracer) EndStage(ctx context.Context, span trace.Span, stageID string, duration time.Duration, err error) {
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"stage.duration_seconds": duration.Seconds(),
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	infrastructure.RecordStageMetrics(ctx, t.metrics, stageID, duration, err)
}

// RecordRowCounts records the run's row counters once the counts are
// known.
func (t *Tracer) RecordRowCounts(ctx context.Context, ingested, matched, dropped, written int) {
	if t.metrics == nil {
		return
	}
	t.metrics.RowsIngested.Add(ctx, int64(ingested))
	t.metrics.RowsMatched.Add(ctx, int64(matched))
	t.metrics.RowsDropped.Add(ctx, int64(dropped))
	t.metrics.RowsWritten.Add(ctx, int64(written))
}
