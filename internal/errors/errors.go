// Package errors defines the pipeline's error taxonomy. Only two
// conditions abort a run: exhausting every ingestion layer, and a
// registry whose name column cannot be resolved. Both carry enough
// diagnostic detail to pin down a malformed input file from the error
// text alone. Everything else degrades locally and is logged where it
// happens.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed fatals below.
var (
	ErrIngestExhausted = errors.New("all ingestion layers failed")
	ErrRegistryColumn  = errors.New("registry name column not found")
)

// LayerFailure records one ingestion layer's outcome.
type LayerFailure struct {
	Layer string
	Err   error
}

// IngestExhaustedError is returned when every ingestion strategy failed.
// It keeps each layer's cause so the operator can see which strategy got
// furthest.
type IngestExhaustedError struct {
	Source   string
	Failures []LayerFailure
}

func (e *IngestExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reading activity data from %s failed in every layer", e.Source)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n- %s: %v", f.Layer, f.Err)
	}
	return b.String()
}

func (e *IngestExhaustedError) Is(target error) bool {
	return target == ErrIngestExhausted
}

// Unwrap exposes the last layer's cause, the one closest to giving up.
func (e *IngestExhaustedError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1].Err
}

// RegistryColumnError is returned when the customer-name column cannot
// be resolved from any alias. It reports what was tried against what was
// actually there.
type RegistryColumnError struct {
	Aliases []string
	Header  []string
}

func (e *RegistryColumnError) Error() string {
	return fmt.Sprintf(
		"customer registry has no resolvable name column\n- tried aliases: %s\n- actual header: %s",
		strings.Join(e.Aliases, ", "),
		strings.Join(e.Header, ", "),
	)
}

func (e *RegistryColumnError) Is(target error) bool {
	return target == ErrRegistryColumn
}

// IsFatal reports whether err should abort the run rather than degrade.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIngestExhausted) || errors.Is(err, ErrRegistryColumn)
}
