package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"crmbridge/internal/exporter"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/ingest"
	"crmbridge/internal/matching"
	"crmbridge/internal/registry"
	"crmbridge/internal/transform"
	"crmbridge/pkg/contracts/events"
)

// Step is one unit of pipeline work. Execute reads and writes the run
// state; Validate checks its preconditions against what earlier steps
// left there.
type Step interface {
	ID() string
	Name() string
	Validate(state *RunState) error
	Execute(ctx context.Context, state *RunState) error
}

// registryLoadStep loads the customer master list.
type registryLoadStep struct {
	svc  *registry.Service
	path string
}

func (s *registryLoadStep) ID() string { return events.StageRegistryLoad }
func (s *registryLoadStep) Name() string { return "Load customer registry" }
func (s *registryLoadStep) Validate(_ *RunState) error { return nil }

func (s *registryLoadStep) Execute(ctx context.Context, state *RunState) error {
	reg, err := s.svc.LoadRegistry(ctx, s.path)
	if err != nil {
		return err
	}
	state.Registry = reg
	return nil
}

// ingestStep loads the activity table through the fallback chain.
type ingestStep struct {
	svc       *ingest.Service
	path      string
	sheetHint string
}

func (s *ingestStep) ID() string { return events.StageIngest }
func (s *ingestStep) Name() string { return "Ingest activity workbook" }
func (s *ingestStep) Validate(_ *RunState) error { return nil }

func (s *ingestStep) Execute(ctx context.Context, state *RunState) error {
	table, sheet, err := s.svc.LoadActivityTable(ctx, s.path, s.sheetHint)
	if err != nil {
		return err
	}
	state.Activity = table
	state.SheetName = sheet
	return nil
}

// matchStep reconciles activity rows against the registry.
type matchStep struct {
	svc *matching.Service
}

func (s *matchStep) ID() string { return events.StageMatch }
func (s *matchStep) Name() string { return "Match activity to customers" }

func (s *matchStep) Validate(state *RunState) error {
	if state.Registry == nil {
		return fmt.Errorf("match step requires a loaded registry")
	}
	if state.Activity == nil {
		return fmt.Errorf("match step requires an ingested activity table")
	}
	return nil
}

func (s *matchStep) Execute(ctx context.Context, state *RunState) error {
	state.MatchResult = s.svc.Match(ctx, state.Registry, state.Activity)
	return nil
}

// artifactStep writes the matched-activity workbook for auditing. A
// failure here is logged and swallowed: the artifact is a convenience,
// never a reason to lose the run.
type artifactStep struct {
	writer    *exporter.ArtifactWriter
	path      string
	sheetName string
	enabled   bool
	logger    *slog.Logger
}

func (s *artifactStep) ID() string { return events.StageArtifact }
func (s *artifactStep) Name() string { return "Write matched-activity artifact" }

func (s *artifactStep) Validate(state *RunState) error {
	if state.MatchResult == nil {
		return fmt.Errorf("artifact step requires matching results")
	}
	return nil
}

func (s *artifactStep) Execute(ctx context.Context, state *RunState) error {
	if !s.enabled {
		state.Step(s.ID()).Skip("artifact disabled by configuration")
		return nil
	}
	if err := s.writer.WriteArtifact(s.path, s.sheetName, state.MatchResult.Matched); err != nil {
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "artifact write failed, continuing")
	}
	return nil
}

// transformStep builds the import rows from the matched table.
type transformStep struct {
	svc *transform.Service
}

func (s *transformStep) ID() string { return events.StageTransform }
func (s *transformStep) Name() string { return "Build CRM import rows" }

func (s *transformStep) Validate(state *RunState) error {
	if state.MatchResult == nil {
		return fmt.Errorf("transform step requires matching results")
	}
	return nil
}

func (s *transformStep) Execute(ctx context.Context, state *RunState) error {
	state.Output = s.svc.Transform(ctx, state.MatchResult.Matched, state.Registry)
	return nil
}

// exportStep serializes the output table to the cp932 import file.
type exportStep struct {
	writer *exporter.CSVWriter
	path   string
}

func (s *exportStep) ID() string { return events.StageExport }
func (s *exportStep) Name() string { return "Write import file" }

func (s *exportStep) Validate(state *RunState) error {
	if state.Output == nil {
		return fmt.Errorf("export step requires transformed output")
	}
	return nil
}

func (s *exportStep) Execute(_ context.Context, state *RunState) error {
	n, err := s.writer.WriteImportFile(s.path, state.Output)
	if err != nil {
		return err
	}
	state.RowsWritten = n
	return nil
}
