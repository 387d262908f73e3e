// Package config provides centralized configuration management for the
// pipeline. It loads from multiple sources, validates the result, and
// exposes the resolved values through a type-safe API.
//
// # Configuration Sources
//
// Configuration is loaded in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. An optional YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CRMBRIDGE_* for
// namespacing, with the section name infixed:
//
//	CRMBRIDGE_PATHS_WORKBOOK_FILE=activity.xlsx
//	CRMBRIDGE_PATHS_REGISTRY_FILE=customers.csv
//	CRMBRIDGE_PATHS_OUTPUT_FILE=import.csv
//	CRMBRIDGE_LOGGING_LEVEL=debug
//	CRMBRIDGE_PIPELINE_ARTIFACT_ENABLED=false
//
// CRMBRIDGE_CONFIG_FILE points at the YAML file; without it the loader
// probes config.yaml and configs/config.yaml.
//
// # Vocabulary
//
// The domain constant tables (registry header aliases, classification
// keywords, administrative headings, the output template schema) live in
// the Vocabulary section and can be replaced from a YAML file named by
// CRMBRIDGE_PIPELINE_VOCABULARY_FILE, so classification rules are
// testable against substitute vocabularies without a code change.
package config
