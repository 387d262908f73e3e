// Package shared holds utilities used across packages that belong to
// no specific layer. Today that is only testutil, the log-capture
// helpers the pipeline packages test their slog output with. Nothing
// here may carry business logic or depend on other internal packages.
package shared
