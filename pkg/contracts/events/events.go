// Package events defines the payloads the pipeline publishes to the
// surrounding layer: per-stage progress events and the end-of-run
// summary. Front ends consume these instead of scraping log output.
package events

import "time"

// Stage identifiers in execution order.
const (
	StageRegistryLoad = "registry_load"
	StageIngest       = "ingest"
	StageMatch        = "match"
	StageArtifact     = "artifact"
	StageTransform    = "transform"
	StageExport       = "export"
)

// Event levels. They mirror slog levels so a sink can forward events
// straight into a logger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// PipelineEvent is one structured narration record: what stage said
// what, at which level, with optional counters attached.
type PipelineEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Level     string         `json:"level"`
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// EventSink receives pipeline events. The pipeline publishes
// synchronously between units of work, so implementations must not
// block.
type EventSink interface {
	Publish(event PipelineEvent)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(event PipelineEvent)

// Publish calls f(event).
func (f EventSinkFunc) Publish(event PipelineEvent) { f(event) }

// NopSink discards every event.
type NopSink struct{}

// Publish discards the event.
func (NopSink) Publish(PipelineEvent) {}

// StageTiming records one stage's execution outcome.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
}

// RunSummary is the end-of-run report handed back to the caller: row
// counts at each boundary, per-stage timings, and the gathered metrics
// snapshot when observability is enabled.
type RunSummary struct {
	RunID         string             `json:"run_id"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       time.Time          `json:"end_time"`
	SheetName     string             `json:"sheet_name"`
	RowsIngested  int                `json:"rows_ingested"`
	RowsMatched   int                `json:"rows_matched"`
	RowsUnmatched int                `json:"rows_unmatched"`
	RowsWritten   int                `json:"rows_written"`
	Stages        []StageTiming      `json:"stages"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

// Duration returns the wall-clock length of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
