// crmbridge runs the activity-to-CRM-import pipeline once: it reads an
// activity workbook and a customer registry, reconciles them, and
// writes the import CSV. All configuration comes from CRMBRIDGE_*
// environment variables plus an optional YAML file; there are no flags.
// The surrounding front ends invoke this binary and consume its JSON
// log stream and exit code.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"crmbridge/internal/config"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/pipeline"
	"crmbridge/internal/validation"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		return 1
	}
	defer infrastructure.CloseLogFile()

	paths, err := cfg.ResolvedPaths()
	if err != nil {
		logger.Error("failed to resolve paths", slog.String("error", err.Error()))
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to prepare directories", slog.String("error", err.Error()))
		return 1
	}

	if err := validation.NewFileValidator(logger).ValidateRunInputs(paths); err != nil {
		logger.Error("input validation failed", slog.String("error", err.Error()))
		return 1
	}

	// Relative trace files land in the run's logs directory.
	if !filepath.IsAbs(cfg.Observability.TraceFile) {
		cfg.Observability.TraceFile = paths.LogPath(filepath.Base(cfg.Observability.TraceFile))
	}

	providers, err := infrastructure.InitializeOTel(cfg.Observability, logger)
	if err != nil {
		logger.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	p, err := pipeline.New(cfg, paths, providers, nil, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx := infrastructure.ContextWithRunID(context.Background())
	summary, err := p.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "pipeline run failed", slog.String("error", err.Error()))
		return 1
	}

	if metrics, err := providers.MetricsSnapshot(); err == nil && len(metrics) > 0 {
		summary.Metrics = metrics
	}

	logger.InfoContext(ctx, "run summary",
		slog.String("sheet", summary.SheetName),
		slog.Int("rows_ingested", summary.RowsIngested),
		slog.Int("rows_matched", summary.RowsMatched),
		slog.Int("rows_unmatched", summary.RowsUnmatched),
		slog.Int("rows_written", summary.RowsWritten),
		slog.Duration("duration", summary.Duration()))

	return 0
}
