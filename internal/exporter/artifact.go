package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"crmbridge/pkg/contracts/domain"
)

// ArtifactWriter saves the matched-and-annotated activity table as a
// single-sheet workbook before transformation. The artifact exists for
// auditing which rows matched which customer; the final output does not
// depend on it, so callers treat failures as non-fatal.
type ArtifactWriter struct {
	logger *slog.Logger
}

// NewArtifactWriter creates an artifact writer.
func NewArtifactWriter(logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactWriter{logger: logger}
}

// WriteArtifact writes the table to an XLSX file at path, on a sheet
// with the given name. Row 1 is the header.
func (w *ArtifactWriter) WriteArtifact(path, sheetName string, table *domain.Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name artifact sheet: %w", err)
	}

	if err := writeRow(f, sheetName, 1, table.Columns); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save artifact workbook: %w", err)
	}

	w.logger.Info("artifact workbook written",
		slog.String("path", filepath.Base(path)),
		slog.String("sheet", sheetName),
		slog.Int("rows", table.Len()))

	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to address artifact row %d: %w", rowNum, err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write artifact row %d: %w", rowNum, err)
	}
	return nil
}
