package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute locations of one run's files.
// This is the single source of truth for file paths: components take the
// resolved values and never re-derive them.
type Paths struct {
	WorkbookFile string
	RegistryFile string
	OutputFile   string
	ArtifactFile string
	LogsDir      string
}

// ResolvedPaths absolutizes the configured paths against the working
// directory.
func (c *Config) ResolvedPaths() (*Paths, error) {
	p := &Paths{}
	var err error

	resolve := func(path string) (string, error) {
		if path == "" || filepath.IsAbs(path) {
			return path, nil
		}
		return filepath.Abs(path)
	}

	if p.WorkbookFile, err = resolve(c.Paths.WorkbookFile); err != nil {
		return nil, fmt.Errorf("failed to resolve workbook path: %w", err)
	}
	if p.RegistryFile, err = resolve(c.Paths.RegistryFile); err != nil {
		return nil, fmt.Errorf("failed to resolve registry path: %w", err)
	}
	if p.OutputFile, err = resolve(c.Paths.OutputFile); err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}
	if p.ArtifactFile, err = resolve(c.Paths.ArtifactFile); err != nil {
		return nil, fmt.Errorf("failed to resolve artifact path: %w", err)
	}
	if p.LogsDir, err = resolve(c.Paths.LogsDir); err != nil {
		return nil, fmt.Errorf("failed to resolve logs dir: %w", err)
	}

	return p, nil
}

// EnsureDirectories creates the directories a run writes into.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.LogsDir,
		filepath.Dir(p.OutputFile),
		filepath.Dir(p.ArtifactFile),
	}

	for _, dir := range directories {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

// LogPath returns the location of a log file inside the logs directory.
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
