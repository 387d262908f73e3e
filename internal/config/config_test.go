package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "明細データ", cfg.Pipeline.SheetHint)
	assert.True(t, cfg.Pipeline.ArtifactEnabled)
	assert.Equal(t, "マッチ結果", cfg.Pipeline.ArtifactSheet)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.False(t, cfg.Observability.Enabled)
	assert.NotEmpty(t, cfg.Vocabulary.NameAliases)
	assert.Len(t, cfg.Vocabulary.TemplateSchema, 12)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CRMBRIDGE_CONFIG_FILE", "")
	t.Setenv("CRMBRIDGE_PATHS_WORKBOOK_FILE", "in/activity.xlsx")
	t.Setenv("CRMBRIDGE_PATHS_REGISTRY_FILE", "in/customers.csv")
	t.Setenv("CRMBRIDGE_LOGGING_LEVEL", "debug")
	t.Setenv("CRMBRIDGE_PIPELINE_ARTIFACT_ENABLED", "false")
	t.Setenv("CRMBRIDGE_PIPELINE_ARTIFACT_SHEET", "照合結果")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "in/activity.xlsx", cfg.Paths.WorkbookFile)
	assert.Equal(t, "in/customers.csv", cfg.Paths.RegistryFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Pipeline.ArtifactEnabled)
	assert.Equal(t, "照合結果", cfg.Pipeline.ArtifactSheet)
	// Defaults fill the rest.
	assert.Equal(t, "customer_action_import_format.csv", cfg.Paths.OutputFile)
	assert.Equal(t, "明細データ", cfg.Pipeline.SheetHint)
}

func TestLoadRequiresInputPaths(t *testing.T) {
	t.Setenv("CRMBRIDGE_CONFIG_FILE", "")
	t.Setenv("CRMBRIDGE_PATHS_WORKBOOK_FILE", "")
	t.Setenv("CRMBRIDGE_PATHS_REGISTRY_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadMergesConfigFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `paths:
  workbook_file: from-file.xlsx
  registry_file: from-file.csv
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	t.Setenv("CRMBRIDGE_CONFIG_FILE", configFile)
	t.Setenv("CRMBRIDGE_PATHS_WORKBOOK_FILE", "")
	t.Setenv("CRMBRIDGE_PATHS_REGISTRY_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	// The file fills what the environment left empty.
	assert.Equal(t, "from-file.xlsx", cfg.Paths.WorkbookFile)
	assert.Equal(t, "from-file.csv", cfg.Paths.RegistryFile)
}

func TestEnvironmentBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("paths:\n  workbook_file: from-file.xlsx\n  registry_file: from-file.csv\n"), 0644))

	t.Setenv("CRMBRIDGE_CONFIG_FILE", configFile)
	t.Setenv("CRMBRIDGE_PATHS_WORKBOOK_FILE", "from-env.xlsx")
	t.Setenv("CRMBRIDGE_PATHS_REGISTRY_FILE", "from-env.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env.xlsx", cfg.Paths.WorkbookFile)
}

func TestValidateCoercesLogging(t *testing.T) {
	cfg := Default()
	cfg.Paths.WorkbookFile = "a.xlsx"
	cfg.Paths.RegistryFile = "b.csv"
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestResolvedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.WorkbookFile = "in/activity.xlsx"
	cfg.Paths.RegistryFile = "/abs/customers.csv"
	cfg.Paths.LogsDir = "logs"

	paths, err := cfg.ResolvedPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.WorkbookFile))
	assert.Equal(t, "/abs/customers.csv", paths.RegistryFile)
	assert.True(t, filepath.IsAbs(paths.LogsDir))
	assert.Equal(t, filepath.Join(paths.LogsDir, "run.log"), paths.LogPath("run.log"))
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	p := &Paths{
		OutputFile:   filepath.Join(dir, "out", "import.csv"),
		ArtifactFile: filepath.Join(dir, "out", "matched.xlsx"),
		LogsDir:      filepath.Join(dir, "logs"),
	}

	require.NoError(t, p.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "out"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}
