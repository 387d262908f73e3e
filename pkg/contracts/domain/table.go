package domain

// Table is an ordered grid of text cells with named columns. It is the
// in-memory shape of both the ingested activity data and the generated
// import rows. Column identity is dual: lookups may use the header label
// or a fixed zero-based position, because header detection on real input
// files is allowed to fail.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table from a header and body rows. Short rows are
// padded and long rows truncated to the header width.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, fitRow(r, len(columns)))
	}
	return t
}

func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Len returns the number of body rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.Columns)
}

// Cell returns the value at (row, col), or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// ColumnIndex returns the position of the first column with the given
// label, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ResolveColumn is the single place positional layout knowledge lives.
// It returns the index of the first candidate name present in the header;
// when none match it falls back to fallbackIdx if that is a valid
// position, else -1. Pass a negative fallbackIdx to disable the
// positional fallback.
func (t *Table) ResolveColumn(names []string, fallbackIdx int) int {
	for _, n := range names {
		if i := t.ColumnIndex(n); i >= 0 {
			return i
		}
	}
	if fallbackIdx >= 0 && fallbackIdx < len(t.Columns) {
		return fallbackIdx
	}
	return -1
}

// Column returns the values of one column in row order. Out-of-range
// indexes yield a slice of empty strings so callers can treat a missing
// column as uniformly blank.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	if col < 0 {
		return out
	}
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// Select returns a new table containing the given rows, in the given
// order, sharing no backing storage with the receiver.
func (t *Table) Select(rows []int) *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, i := range rows {
		if i < 0 || i >= len(t.Rows) {
			continue
		}
		out.Rows = append(out.Rows, fitRow(t.Rows[i], len(t.Columns)))
	}
	return out
}

// AppendColumn adds a column with one value per existing row. Missing
// values are blank.
func (t *Table) AppendColumn(name string, values []string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
}
