// Package validation preflights a run's input and output locations so
// the pipeline fails fast on setup problems instead of partway through
// a stage.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"crmbridge/internal/config"
)

// Workbook extensions the ingestion fallback chain knows how to open.
// Delimited input takes the .csv path instead.
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
	".csv":  true,
}

// FileValidator checks a run's files before the pipeline starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateRunInputs checks both input files and the output locations
// for one run.
func (v *FileValidator) ValidateRunInputs(paths *config.Paths) error {
	if err := v.ValidateWorkbookFile(paths.WorkbookFile); err != nil {
		return fmt.Errorf("activity workbook: %w", err)
	}
	if err := v.ValidateRegistryFile(paths.RegistryFile); err != nil {
		return fmt.Errorf("customer registry: %w", err)
	}
	if err := v.ValidateOutputLocation(paths.OutputFile); err != nil {
		return fmt.Errorf("output file: %w", err)
	}
	return nil
}

// ValidateFile checks that path names an existing, readable, regular
// file.
func (v *FileValidator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("no path configured")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("file does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile checks the activity input: a readable file with
// an extension the ingestion layers handle, and not a spreadsheet
// application's lock file.
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !workbookExtensions[ext] {
		v.logger.Error("unsupported activity file type",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s has unsupported extension %s", path, ext)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("file %s is a spreadsheet lock file", path)
	}

	return nil
}

// ValidateRegistryFile checks the customer registry input. Only
// delimited text is accepted; the loader decodes it as cp932.
func (v *FileValidator) ValidateRegistryFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		v.logger.Error("registry is not a delimited text file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
	}

	return nil
}

// ValidateOutputLocation ensures the output file's directory exists and
// is writable before any stage runs.
func (v *FileValidator) ValidateOutputLocation(path string) error {
	if path == "" {
		return fmt.Errorf("no path configured")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)

	return nil
}
