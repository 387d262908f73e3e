// Package transform turns matched activity rows into import rows for
// the downstream CRM. Three extractors feed a fixed template: the
// date/time range parser, the action-type classifier, and the note-body
// extractor. The template schema, not the input data, decides the
// output shape.
package transform

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"crmbridge/internal/config"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/textnorm"
	"crmbridge/pkg/contracts/domain"
)

// Activity-table columns the transformer draws from, resolved by label
// first with the positional fallback the legacy layout guarantees.
var (
	methodAliases = []string{"方法", "活動方法", "訪問方法"}
	typeAliases   = []string{"活動種別", "カテゴリ", "行動種別"}
	bodyAliases   = []string{"活動内容", "実施内容", "内容", "備考"}
	dateAliases   = []string{"日付", "活動日", "訪問日"}
)

const (
	methodFallbackIdx = 4
	typeFallbackIdx   = 10
	bodyFallbackIdx   = 11
	dateFallbackIdx   = 7
)

const (
	statusDone      = "完了"
	ownerUnassigned = "担当者未設定"
)

// Service builds import rows from matched activity rows.
type Service struct {
	vocab     config.Vocabulary
	headingRE *regexp.Regexp
	clock     func() time.Time
	logger    *slog.Logger
}

// NewService creates a transformer using the vocabulary's keyword sets,
// admin headings and template schema.
func NewService(vocab config.Vocabulary, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		vocab:     vocab,
		headingRE: headingPattern(vocab.AdminHeadings),
		clock:     time.Now,
		logger:    logger,
	}
}

// Transform builds one import row per matched activity row, in matched
// order. The registry supplies the id-to-row index for the primary
// owner lookup.
func (s *Service) Transform(ctx context.Context, matched *domain.Table, reg *domain.Registry) *domain.Table {
	logger := infrastructure.WithComponent(s.logger, "transform")

	idCol := matched.ResolveColumn([]string{domain.ColMatchedID}, -1)
	methodCol := matched.ResolveColumn(methodAliases, methodFallbackIdx)
	typeCol := matched.ResolveColumn(typeAliases, typeFallbackIdx)
	bodyCol := matched.ResolveColumn(bodyAliases, bodyFallbackIdx)
	dateCol := matched.ResolveColumn(dateAliases, dateFallbackIdx)

	idIndex := reg.IDIndex()
	schema := s.vocab.TemplateSchema

	rows := make([][]string, 0, matched.Len())
	for i := 0; i < matched.Len(); i++ {
		custID := strings.TrimSpace(matched.Cell(i, idCol))
		bodyRaw := matched.Cell(i, bodyCol)

		body := s.ExtractBody(bodyRaw)
		rng := s.ExtractRange(bodyRaw, matched.Cell(i, dateCol))
		action := s.Classify(matched.Cell(i, methodCol), matched.Cell(i, typeCol), bodyRaw)

		rows = append(rows, s.populate(schema, custID, action, rng, body, reg, idIndex))
	}

	out := domain.NewTable(schema, rows)
	logger.InfoContext(ctx, "import rows built", slog.Int("rows", out.Len()))
	return out
}

// populate fills one output row by the per-field rules. Fields no rule
// covers stay empty.
func (s *Service) populate(schema []string, custID string, action domain.ActionType, rng Range, body string, reg *domain.Registry, idIndex map[string]int) []string {
	row := make([]string, len(schema))
	for f, field := range schema {
		switch field {
		case domain.FieldAccountID:
			row[f] = textnorm.EncodeSafe(custID)
		case domain.FieldActionType:
			row[f] = textnorm.EncodeSafe(string(action))
		case domain.FieldStartDate:
			row[f] = rng.StartDate
		case domain.FieldStartTime:
			row[f] = rng.StartTime
		case domain.FieldEndDate:
			row[f] = rng.EndDate
		case domain.FieldEndTime:
			row[f] = rng.EndTime
		case domain.FieldResult, "詳細", "活動内容", "本文", "メモ":
			row[f] = body
		case domain.FieldStatus:
			row[f] = statusDone
		case domain.FieldPrimaryOwner:
			row[f] = textnorm.EncodeSafe(resolveOwner(custID, reg, idIndex))
		}
	}
	return row
}

// resolveOwner looks up the matched customer's support owner through
// the id index. Any gap in the chain yields the unassigned placeholder.
func resolveOwner(custID string, reg *domain.Registry, idIndex map[string]int) string {
	if custID == "" || reg.OwnerCol < 0 {
		return ownerUnassigned
	}
	idx, ok := idIndex[custID]
	if !ok {
		return ownerUnassigned
	}
	if owner := reg.Owner(idx); owner != "" {
		return owner
	}
	return ownerUnassigned
}
