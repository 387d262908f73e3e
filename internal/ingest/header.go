package ingest

import (
	"log/slog"
	"strings"
	"unicode"
)

// headerScanLimit bounds how many leading body rows are examined when
// looking for the true header. Real exports carry at most one or two
// title rows above the header.
const headerScanLimit = 5

// recoverHeader decides whether one of the leading body rows is the
// real column header. Upstream exports often stack a title row or two
// above the header, so the row the reader took as the header may be
// junk. Each candidate row is scored with independent signals; the
// first row judged header-like replaces the current header and every
// row above it is dropped. When no candidate qualifies, the scanned
// rows are dropped and the incoming header is kept as-is.
func recoverHeader(header []string, body [][]Cell, keywords []string, logger *slog.Logger) ([]string, [][]Cell) {
	if len(body) <= 1 {
		return header, body
	}

	rowsToRemove := 0
	foundHeaderRow := -1

	limit := headerScanLimit
	if len(body)-1 < limit {
		limit = len(body) - 1
	}

	for checkRow := 0; checkRow < limit; checkRow++ {
		current := body[checkRow]
		next := body[checkRow+1]

		if isHeaderLike(current, next, keywords) {
			foundHeaderRow = checkRow
			break
		}

		rowsToRemove++
		logger.Warn("leading row is not header-like, dropping",
			slog.Int("row", checkRow+1))
	}

	if foundHeaderRow >= 0 {
		logger.Info("recovered header row",
			slog.Int("row", foundHeaderRow+1))
		return rowValues(body[foundHeaderRow]), body[foundHeaderRow+1:]
	}

	if rowsToRemove > 0 {
		logger.Warn("no header-like row found, dropping scanned prefix",
			slog.Int("rows_dropped", rowsToRemove))
		return header, body[rowsToRemove:]
	}

	return header, body
}

// isHeaderLike scores one candidate row against the row below it.
func isHeaderLike(current, next []Cell, keywords []string) bool {
	if len(current) == 0 {
		return false
	}

	likely := false

	// Mostly non-empty string cells.
	stringCount := 0
	for _, c := range current {
		if !c.Numeric && strings.TrimSpace(c.Value) != "" {
			stringCount++
		}
	}
	if float64(stringCount)/float64(len(current)) >= 0.6 {
		likely = true
	}

	// Carries a known header keyword.
	if containsHeaderKeyword(current, keywords) {
		likely = true
	}

	// Cell types flip between this row and the next.
	mismatch := 0
	comparable := 0
	for i := 0; i < len(current) && i < len(next); i++ {
		if current[i].Value == "" || next[i].Value == "" {
			continue
		}
		comparable++
		if current[i].Numeric != next[i].Numeric {
			mismatch++
		}
	}
	if comparable > 0 && float64(mismatch)/float64(comparable) >= 0.4 {
		likely = true
	}

	// A row that is mostly numbers or digit-bearing text is data, not a
	// header, whatever the other signals said.
	dataLike := 0
	for _, c := range current {
		if c.Numeric || containsDigit(c.Value) {
			dataLike++
		}
	}
	if float64(dataLike)/float64(len(current)) >= 0.5 {
		likely = false
	}

	return likely
}

func containsHeaderKeyword(row []Cell, keywords []string) bool {
	for _, c := range row {
		if c.Numeric || c.Value == "" {
			continue
		}
		lower := strings.ToLower(c.Value)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
