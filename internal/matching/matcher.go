// Package matching reconciles activity rows against the customer
// registry by normalized substring containment.
//
// Each customer, in registry order, claims every still-unclaimed
// activity row whose candidate text contains the customer's normalized
// name key. A claimed row is never reconsidered, so the first customer
// in registry order wins ties. Rows no customer claims are dropped.
package matching

import (
	"context"
	"log/slog"
	"strings"

	"crmbridge/internal/infrastructure"
	"crmbridge/internal/textnorm"
	"crmbridge/pkg/contracts/domain"
)

// Candidate text is drawn from three activity columns: the free-text
// destination column (by label, else position 2), then the two fixed
// positions the export always puts secondary mentions in.
const (
	primaryColumnLabel = "活動先"
	primaryColumnIdx   = 2
	latePositionIdx    = 12
	midPositionIdx     = 6
)

// Result is the matching outcome: the claimed rows in their original
// order, annotated with the claiming customer's name, id and tier.
type Result struct {
	Matched   *domain.Table
	Total     int
	Unmatched int
}

// MatchedCount returns the number of rows a customer claimed.
func (r *Result) MatchedCount() int {
	return r.Total - r.Unmatched
}

// Service matches activity tables against customer registries.
type Service struct {
	logger *slog.Logger
}

// NewService creates a matching service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Match claims activity rows for customers. For every registry row in
// order, the customer's normalized name key is tested for containment
// in the three normalized candidate columns of each unclaimed activity
// row; a hit on any column claims the row. Customers whose key
// normalizes to empty are skipped. The scan stops early once every row
// is claimed. The returned table keeps only claimed rows, in activity
// order, with the annotation columns appended.
func (s *Service) Match(ctx context.Context, reg *domain.Registry, activity *domain.Table) *Result {
	logger := infrastructure.WithComponent(s.logger, "matching")

	n := activity.Len()

	primary := normalizedColumn(activity, activity.ResolveColumn([]string{primaryColumnLabel}, primaryColumnIdx))
	late := normalizedColumn(activity, positionalColumn(activity, latePositionIdx))
	mid := normalizedColumn(activity, positionalColumn(activity, midPositionIdx))

	matchedName := make([]string, n)
	matchedID := make([]string, n)
	matchedTier := make([]string, n)
	claimed := make([]bool, n)
	remaining := n

	for c := 0; c < reg.Len() && remaining > 0; c++ {
		rawName := reg.Name(c)
		key := textnorm.Normalize(rawName)
		if key == "" {
			continue
		}

		for i := 0; i < n; i++ {
			if claimed[i] {
				continue
			}
			if !strings.Contains(primary[i], key) &&
				!strings.Contains(late[i], key) &&
				!strings.Contains(mid[i], key) {
				continue
			}
			claimed[i] = true
			matchedName[i] = rawName
			matchedID[i] = reg.ID(c)
			matchedTier[i] = reg.Tier(c)
			remaining--
		}
	}

	indices := make([]int, 0, n-remaining)
	names := make([]string, 0, n-remaining)
	ids := make([]string, 0, n-remaining)
	tiers := make([]string, 0, n-remaining)
	for i := 0; i < n; i++ {
		if !claimed[i] {
			continue
		}
		indices = append(indices, i)
		names = append(names, matchedName[i])
		ids = append(ids, matchedID[i])
		tiers = append(tiers, matchedTier[i])
	}

	out := activity.Select(indices)
	out.AppendColumn(domain.ColMatchedName, names)
	out.AppendColumn(domain.ColMatchedID, ids)
	out.AppendColumn(domain.ColMatchedTier, tiers)

	result := &Result{Matched: out, Total: n, Unmatched: remaining}

	logger.InfoContext(ctx, "matching complete",
		slog.Int("matched", result.MatchedCount()),
		slog.Int("total", n))
	if remaining > 0 {
		logger.WarnContext(ctx, "unmatched activity rows dropped",
			slog.Int("dropped", remaining))
	}

	return result
}

// positionalColumn guards a fixed position against narrow tables.
func positionalColumn(t *domain.Table, idx int) int {
	if idx >= t.Width() {
		return -1
	}
	return idx
}

// normalizedColumn precomputes the normalized text of one candidate
// column. A missing column normalizes to blanks, which contain nothing.
func normalizedColumn(t *domain.Table, idx int) []string {
	out := make([]string, t.Len())
	if idx < 0 {
		return out
	}
	for i := range out {
		out[i] = textnorm.Normalize(t.Cell(i, idx))
	}
	return out
}
