package domain

import "strings"

// Registry is the customer master list: an immutable table plus the
// positions of the four recognized attribute columns. Name is the only
// required attribute; the rest are -1 when the header did not carry them.
type Registry struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`

	NameCol  int `json:"name_col"`
	IDCol    int `json:"id_col"`
	TierCol  int `json:"tier_col"`
	OwnerCol int `json:"owner_col"`
}

// Len returns the number of customer rows.
func (r *Registry) Len() int {
	return len(r.Rows)
}

func (r *Registry) cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(r.Rows) {
		return ""
	}
	cells := r.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Name returns the canonical customer name of row i.
func (r *Registry) Name(i int) string { return r.cell(i, r.NameCol) }

// ID returns the customer identifier of row i, or "".
func (r *Registry) ID(i int) string { return r.cell(i, r.IDCol) }

// Tier returns the customer tier/classification of row i, or "".
func (r *Registry) Tier(i int) string { return r.cell(i, r.TierCol) }

// Owner returns the secondary-owner attribute of row i, or "".
func (r *Registry) Owner(i int) string { return r.cell(i, r.OwnerCol) }

// IDIndex maps each non-blank customer id to its first row. Built once
// by callers that need id lookups; later duplicates do not displace the
// first occurrence.
func (r *Registry) IDIndex() map[string]int {
	idx := make(map[string]int)
	if r.IDCol < 0 {
		return idx
	}
	for i := range r.Rows {
		key := strings.TrimSpace(r.ID(i))
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}
