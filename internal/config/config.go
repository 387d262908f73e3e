package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete pipeline configuration.
type Config struct {
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Pipeline      PipelineConfig      `yaml:"pipeline" envconfig:"PIPELINE"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
	Vocabulary    Vocabulary          `yaml:"vocabulary" ignored:"true"`
}

// PathsConfig names the run's input and output files.
type PathsConfig struct {
	WorkbookFile string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE" validate:"required"`
	RegistryFile string `yaml:"registry_file" envconfig:"REGISTRY_FILE" validate:"required"`
	OutputFile   string `yaml:"output_file" envconfig:"OUTPUT_FILE" default:"customer_action_import_format.csv"`
	ArtifactFile string `yaml:"artifact_file" envconfig:"ARTIFACT_FILE" default:"matched_activity.xlsx"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/crmbridge.log"`
}

// PipelineConfig tunes the run itself.
type PipelineConfig struct {
	SheetHint       string `yaml:"sheet_hint" envconfig:"SHEET_HINT" default:"明細データ"`
	ArtifactEnabled bool   `yaml:"artifact_enabled" envconfig:"ARTIFACT_ENABLED" default:"true"`
	ArtifactSheet   string `yaml:"artifact_sheet" envconfig:"ARTIFACT_SHEET" default:"マッチ結果"`
	VocabularyFile  string `yaml:"vocabulary_file" envconfig:"VOCABULARY_FILE"`
}

// ObservabilityConfig controls tracing and metrics. Disabled by default;
// the pipeline runs fine without either.
type ObservabilityConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	TraceFile string `yaml:"trace_file" envconfig:"TRACE_FILE" default:"logs/trace.jsonl"`
}

var validate = validator.New()

// Load builds configuration from environment variables (CRMBRIDGE_*
// namespace), then fills still-empty fields from an optional YAML file,
// then applies the vocabulary defaults and validates the result.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CRMBRIDGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	cfg.Vocabulary = DefaultVocabulary()
	if cfg.Pipeline.VocabularyFile != "" {
		vocab, err := LoadVocabulary(cfg.Pipeline.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabulary: %w", err)
		}
		cfg.Vocabulary = vocab
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config into env config; env takes precedence,
// the file only fills fields the environment left empty.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Paths.WorkbookFile == "" {
		envConfig.Paths.WorkbookFile = fileConfig.Paths.WorkbookFile
	}
	if envConfig.Paths.RegistryFile == "" {
		envConfig.Paths.RegistryFile = fileConfig.Paths.RegistryFile
	}
	if envConfig.Paths.OutputFile == "" {
		envConfig.Paths.OutputFile = fileConfig.Paths.OutputFile
	}
	if envConfig.Paths.ArtifactFile == "" {
		envConfig.Paths.ArtifactFile = fileConfig.Paths.ArtifactFile
	}
	if envConfig.Paths.LogsDir == "" {
		envConfig.Paths.LogsDir = fileConfig.Paths.LogsDir
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.Format == "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if envConfig.Logging.Output == "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if envConfig.Logging.FilePath == "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if envConfig.Pipeline.SheetHint == "" {
		envConfig.Pipeline.SheetHint = fileConfig.Pipeline.SheetHint
	}
	if envConfig.Pipeline.ArtifactSheet == "" {
		envConfig.Pipeline.ArtifactSheet = fileConfig.Pipeline.ArtifactSheet
	}
	if envConfig.Pipeline.VocabularyFile == "" {
		envConfig.Pipeline.VocabularyFile = fileConfig.Pipeline.VocabularyFile
	}
	if envConfig.Observability.TraceFile == "" {
		envConfig.Observability.TraceFile = fileConfig.Observability.TraceFile
	}
	return envConfig
}

// Validate checks the configuration, coercing the logging fields the
// rest of the system depends on rather than failing on them.
func (c *Config) Validate() error {
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/crmbridge.log"
	}
	if c.Pipeline.SheetHint == "" {
		c.Pipeline.SheetHint = DefaultSheetHint
	}
	if c.Pipeline.ArtifactSheet == "" {
		c.Pipeline.ArtifactSheet = DefaultArtifactSheet
	}

	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Vocabulary.Validate()
}

// getConfigFilePath returns the first config file found, or "".
func getConfigFilePath() string {
	if path := os.Getenv("CRMBRIDGE_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns the default configuration. Input paths stay empty:
// they have no sensible default and must come from the caller.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			OutputFile:   "customer_action_import_format.csv",
			ArtifactFile: "matched_activity.xlsx",
			LogsDir:      "logs",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/crmbridge.log",
		},
		Pipeline: PipelineConfig{
			SheetHint:       DefaultSheetHint,
			ArtifactEnabled: true,
			ArtifactSheet:   DefaultArtifactSheet,
		},
		Observability: ObservabilityConfig{
			Enabled:   false,
			TraceFile: "logs/trace.jsonl",
		},
		Vocabulary: DefaultVocabulary(),
	}
}
