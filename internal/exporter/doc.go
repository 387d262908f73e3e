// Package exporter serializes pipeline results: the CRM import CSV in
// the downstream system's legacy cp932 encoding, and the optional
// matched-activity workbook kept for auditing. Encoding is lossy by
// policy, characters cp932 cannot carry are substituted, never fatal.
package exporter
