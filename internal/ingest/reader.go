package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "crmbridge/internal/errors"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/textnorm"
	"crmbridge/pkg/contracts/domain"
)

// Service loads activity data from workbook or delimited files through
// a layered fallback chain. Construction is cheap; one service can load
// any number of files.
type Service struct {
	headerKeywords []string
	logger         *slog.Logger
}

// NewService creates an ingestion service. headerKeywords drives the
// header-recovery scoring.
func NewService(headerKeywords []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		headerKeywords: headerKeywords,
		logger:         logger,
	}
}

// LoadActivityTable reads the activity file at path and returns the
// recovered table plus the resolved sheet name. Workbook input walks
// the fallback layers in order: structured read, container read,
// structured XML parse, salvage parse. Each layer's failure is logged
// and collected; only exhaustion of every layer is fatal. Delimited
// input (.csv) takes the cp932 path instead.
func (s *Service) LoadActivityTable(ctx context.Context, path, sheetHint string) (*domain.Table, string, error) {
	logger := infrastructure.WithComponent(s.logger, "ingest").
		With(slog.String("source", filepath.Base(path)))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read activity file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return s.loadDelimited(ctx, logger, path, data)
	}

	return s.loadWorkbook(ctx, logger, path, data, sheetHint)
}

func (s *Service) loadDelimited(ctx context.Context, logger *slog.Logger, path string, data []byte) (*domain.Table, string, error) {
	rows, err := readDelimited(data)
	if err != nil {
		logger.ErrorContext(ctx, "delimited read failed", slog.String("error", err.Error()))
		return nil, "", &apperrors.IngestExhaustedError{
			Source: filepath.Base(path),
			Failures: []apperrors.LayerFailure{
				{Layer: "delimited read", Err: err},
			},
		}
	}

	table := s.buildTable(rows, logger)
	logger.InfoContext(ctx, "activity data loaded",
		slog.String("layer", "delimited read"),
		slog.String("sheet", DelimitedSheetName),
		slog.Int("rows", table.Len()))
	return table, DelimitedSheetName, nil
}

func (s *Service) loadWorkbook(ctx context.Context, logger *slog.Logger, path string, data []byte, sheetHint string) (*domain.Table, string, error) {
	var failures []apperrors.LayerFailure

	fail := func(layer string, err error) {
		failures = append(failures, apperrors.LayerFailure{Layer: layer, Err: err})
		logger.WarnContext(ctx, "ingestion layer failed",
			slog.String("layer", layer),
			slog.String("error", err.Error()))
	}

	done := func(layer, sheet string, table *domain.Table) (*domain.Table, string, error) {
		logger.InfoContext(ctx, "activity data loaded",
			slog.String("layer", layer),
			slog.String("sheet", sheet),
			slog.Int("rows", table.Len()))
		return table, sheet, nil
	}

	rows, sheet, err := structuredRead(data, sheetHint)
	if err == nil {
		return done("structured read", sheet, s.buildTable(rows, logger))
	}
	fail("structured read", err)

	parts, err := openContainer(data, sheetHint)
	if err != nil {
		fail("container read", err)
		return nil, "", &apperrors.IngestExhaustedError{Source: filepath.Base(path), Failures: failures}
	}
	logger.DebugContext(ctx, "container opened",
		slog.String("part", parts.PartName),
		slog.Int("shared_strings", len(parts.SharedStrings)))

	rows, err = parseSheetXML(parts.Content, parts.SharedStrings)
	if err == nil {
		return done("xml parse", parts.SheetName, s.buildTable(rows, logger))
	}
	fail("xml parse", err)

	rows, err = salvageSheetData(parts.Content, parts.SharedStrings)
	if err == nil {
		return done("salvage parse", parts.SheetName, s.buildTable(rows, logger))
	}
	fail("salvage parse", err)

	return nil, "", &apperrors.IngestExhaustedError{Source: filepath.Base(path), Failures: failures}
}

// structuredRead loads the workbook through the spreadsheet library,
// selecting the hinted sheet by name or the first sheet.
func structuredRead(data []byte, sheetHint string) ([][]Cell, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets")
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if name == sheetHint {
			sheet = name
			break
		}
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("sheet %s has no rows", sheet)
	}

	rows := make([][]Cell, len(raw))
	for i, r := range raw {
		rows[i] = cellsFromStrings(r)
	}
	return rows, sheet, nil
}

// buildTable turns raw extracted rows into the activity table: first
// row becomes the provisional header, header recovery corrects it,
// the fixed date column is converted from serial values, and every
// cell is sanitized for the downstream encoding.
func (s *Service) buildTable(rows [][]Cell, logger *slog.Logger) *domain.Table {
	rows = padRows(rows)

	header := rowValues(rows[0])
	body := rows[1:]

	header, body = recoverHeader(header, body, s.headerKeywords, logger)
	convertDateColumn(body)

	columns := make([]string, len(header))
	for i, label := range header {
		columns[i] = textnorm.SanitizeCell(label)
	}

	values := make([][]string, len(body))
	for i, row := range body {
		values[i] = make([]string, len(row))
		for j, c := range row {
			values[i][j] = textnorm.SanitizeCell(c.Value)
		}
	}

	return domain.NewTable(columns, values)
}

// padRows normalizes ragged rows to a single width so positional
// column access stays valid even when the header row is narrower than
// the data below it.
func padRows(rows [][]Cell) [][]Cell {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]Cell, len(rows))
	for i, r := range rows {
		padded := make([]Cell, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}
