// Package pipeline wires the processing stages into one synchronous
// run: registry load, ingestion, matching, the optional audit artifact,
// transformation, export. A run is a single atomic unit of work over
// one input pair; cancellation is honored between stages only.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crmbridge/internal/config"
	"crmbridge/internal/exporter"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/ingest"
	"crmbridge/internal/matching"
	"crmbridge/internal/registry"
	"crmbridge/internal/transform"
	"crmbridge/pkg/contracts/events"
)

// Pipeline executes the full activity-to-import run.
type Pipeline struct {
	steps  []Step
	tracer *Tracer
	sink   events.EventSink
	logger *slog.Logger
}

// New builds a pipeline from configuration. The providers may be no-op
// (observability disabled); the sink may be nil, in which case events
// only reach the log stream.
func New(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, sink events.EventSink, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.NopSink{}
	}

	tracer, err := NewTracer(providers)
	if err != nil {
		return nil, err
	}

	vocab := cfg.Vocabulary
	steps := []Step{
		&registryLoadStep{
			svc:  registry.NewService(vocab, logger),
			path: paths.RegistryFile,
		},
		&ingestStep{
			svc:       ingest.NewService(vocab.HeaderKeywords, logger),
			path:      paths.WorkbookFile,
			sheetHint: cfg.Pipeline.SheetHint,
		},
		&matchStep{
			svc: matching.NewService(logger),
		},
		&artifactStep{
			writer:    exporter.NewArtifactWriter(logger),
			path:      paths.ArtifactFile,
			sheetName: cfg.Pipeline.ArtifactSheet,
			enabled:   cfg.Pipeline.ArtifactEnabled,
			logger:    logger,
		},
		&transformStep{
			svc: transform.NewService(vocab, logger),
		},
		&exportStep{
			writer: exporter.NewCSVWriter(logger),
			path:   paths.OutputFile,
		},
	}

	return &Pipeline{
		steps:  steps,
		tracer: tracer,
		sink:   sink,
		logger: logger,
	}, nil
}

// Run executes every stage in order and returns the run summary. The
// first fatal stage error aborts the run; the artifact stage degrades
// instead of failing. The context is checked between stages, never
// inside one.
func (p *Pipeline) Run(ctx context.Context) (*events.RunSummary, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	state := NewRunState(runID)
	for _, step := range p.steps {
		state.RegisterStep(NewStepState(step.ID(), step.Name()))
	}

	logger := infrastructure.WithComponent(p.logger, "pipeline")
	logger.InfoContext(ctx, "pipeline run starting", slog.Int("stages", len(p.steps)))

	ctx, runSpan := p.tracer.StartRun(ctx, runID)
	defer runSpan.End()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled before stage %s: %w", step.ID(), err)
		}
		if err := p.runStep(ctx, step, state); err != nil {
			p.publish(ctx, events.LevelError, step.ID(), "stage failed",
				map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("stage %s failed: %w", step.ID(), err)
		}
	}

	summary := p.buildSummary(ctx, state)
	p.publish(ctx, events.LevelInfo, events.StageExport, "pipeline run complete", map[string]any{
		"rows_ingested":  summary.RowsIngested,
		"rows_matched":   summary.RowsMatched,
		"rows_unmatched": summary.RowsUnmatched,
		"rows_written":   summary.RowsWritten,
	})
	return summary, nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, state *RunState) error {
	stepState := state.Step(step.ID())

	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return err
	}

	p.publish(ctx, events.LevelInfo, step.ID(), step.Name(), nil)
	stepState.Start()

	stageCtx, span := p.tracer.StartStage(ctx, state.RunID, step.ID())
	err := step.Execute(stageCtx, state)
	p.tracer.EndStage(stageCtx, span, step.ID(), stepState.Duration(), err)

	if err != nil {
		stepState.Fail(err)
		return err
	}
	if stepState.CurrentStatus() == StepStatusRunning {
		stepState.Complete()
	}
	return nil
}

func (p *Pipeline) buildSummary(ctx context.Context, state *RunState) *events.RunSummary {
	summary := &events.RunSummary{
		RunID:     state.RunID,
		StartTime: state.StartTime,
		EndTime:   time.Now(),
		SheetName: state.SheetName,
	}
	if state.Activity != nil {
		summary.RowsIngested = state.Activity.Len()
	}
	if state.MatchResult != nil {
		summary.RowsMatched = state.MatchResult.MatchedCount()
		summary.RowsUnmatched = state.MatchResult.Unmatched
	}
	summary.RowsWritten = state.RowsWritten

	for _, s := range state.StepsInOrder() {
		summary.Stages = append(summary.Stages, events.StageTiming{
			Stage:    s.ID,
			Status:   string(s.CurrentStatus()),
			Duration: s.Duration(),
		})
	}

	p.tracer.RecordRowCounts(ctx, summary.RowsIngested, summary.RowsMatched,
		summary.RowsUnmatched, summary.RowsWritten)

	return summary
}

// publish mirrors an event to the sink, the active span and the log
// stream.
func (p *Pipeline) publish(ctx context.Context, level, stage, message string, fields map[string]any) {
	p.sink.Publish(events.PipelineEvent{
		Timestamp: time.Now(),
		RunID:     infrastructure.GetRunID(ctx),
		Level:     level,
		Stage:     stage,
		Message:   message,
		Fields:    fields,
	})

	infrastructure.AddSpanEvent(ctx, message, fields)

	logger := infrastructure.WithFields(p.logger, fields).With(slog.String("stage", stage))
	switch level {
	case events.LevelError:
		logger.ErrorContext(ctx, message)
	case events.LevelWarn:
		logger.WarnContext(ctx, message)
	case events.LevelDebug:
		logger.DebugContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}
}
