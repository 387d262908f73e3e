package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"crmbridge/internal/textnorm"
	"crmbridge/pkg/contracts/domain"
)

// CSVWriter writes tables as cp932 CSV files. The downstream CRM's
// importer only reads the legacy encoding, so every cell passes through
// the safe encoder first and the byte stream itself is transcoded with
// substitution on anything still unrepresentable.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteImportFile writes the output table to path in cp932. The header
// is the table's column list, written exactly, in order; one CSV line
// per row. Returns the number of data rows written.
func (w *CSVWriter) WriteImportFile(path string, table *domain.Table) (int, error) {
	if err := ensureDir(path); err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoded := transform.NewWriter(file, encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()))
	writer := csv.NewWriter(encoded)
	// The importer runs on Windows and expects CRLF record terminators.
	writer.UseCRLF = true

	if err := writer.Write(safeRecord(table.Columns)); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		if err := writer.Write(safeRecord(row)); err != nil {
			return i, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return table.Len(), fmt.Errorf("failed to flush output file: %w", err)
	}
	if err := encoded.Close(); err != nil {
		return table.Len(), fmt.Errorf("failed to finish encoding: %w", err)
	}

	w.logger.Info("import file written",
		slog.String("path", filepath.Base(path)),
		slog.Int("rows", table.Len()))

	return table.Len(), nil
}

// safeRecord narrows each cell to the output alphabet before the CSV
// layer sees it, so quoting decisions happen on the final text.
func safeRecord(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = textnorm.EncodeSafe(c)
	}
	return out
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
