package ingest

import (
	"strconv"
	"strings"
)

// Cell is one extracted spreadsheet cell together with the type
// knowledge the source layer could preserve. Header recovery weighs
// string cells against numeric ones, so layers keep the distinction
// instead of flattening everything to text up front.
type Cell struct {
	Value   string
	Numeric bool
}

// stringCell builds a Cell from plain text, inferring numericness for
// sources that only deliver strings.
func stringCell(value string) Cell {
	return Cell{Value: value, Numeric: looksNumeric(value)}
}

// cellsFromStrings converts one row of raw string values.
func cellsFromStrings(values []string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = stringCell(v)
	}
	return cells
}

// rowValues flattens a cell row back to its string values.
func rowValues(cells []Cell) []string {
	values := make([]string, len(cells))
	for i, c := range cells {
		values[i] = c.Value
	}
	return values
}

// looksNumeric reports whether a raw string holds a plain number.
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
