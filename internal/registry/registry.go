// Package registry loads the customer master list the matcher and
// transformer reconcile activity rows against.
package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"crmbridge/internal/config"
	apperrors "crmbridge/internal/errors"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/textnorm"
	"crmbridge/pkg/contracts/domain"
)

// Service loads customer registries. The header alias tables come from
// the vocabulary, so deployments whose CRM export renames columns can
// extend them without a code change.
type Service struct {
	vocab  config.Vocabulary
	logger *slog.Logger
}

// NewService creates a registry loader.
func NewService(vocab config.Vocabulary, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{vocab: vocab, logger: logger}
}

// LoadRegistry reads the cp932 customer list at path and resolves its
// attribute columns through the normalized-label lookup. Only the name
// column is required; failing to resolve it is fatal and the error
// carries both the aliases tried and the header actually seen. The id,
// tier and owner columns are optional and record -1 when absent.
func (s *Service) LoadRegistry(ctx context.Context, path string) (*domain.Registry, error) {
	logger := infrastructure.WithComponent(s.logger, "registry").
		With(slog.String("source", filepath.Base(path)))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer registry: %w", err)
	}

	decoded, err := textnorm.DecodeShiftJIS(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode customer registry: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse customer registry: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("customer registry is empty")
	}

	header := records[0]
	lookup := textnorm.BuildLabelLookup(header)

	nameLabel := textnorm.ResolveLabel(lookup, s.vocab.NameAliases)
	if nameLabel == "" {
		return nil, &apperrors.RegistryColumnError{
			Aliases: s.vocab.NameAliases,
			Header:  header,
		}
	}

	reg := &domain.Registry{
		Columns:  header,
		Rows:     records[1:],
		NameCol:  columnIndex(header, nameLabel),
		IDCol:    columnIndex(header, textnorm.ResolveLabel(lookup, s.vocab.IDAliases)),
		TierCol:  columnIndex(header, textnorm.ResolveLabel(lookup, s.vocab.TierAliases)),
		OwnerCol: columnIndex(header, textnorm.ResolveLabel(lookup, s.vocab.OwnerAliases)),
	}

	logger.InfoContext(ctx, "customer registry loaded",
		slog.Int("customers", reg.Len()),
		slog.String("name_column", nameLabel),
		slog.Bool("has_id", reg.IDCol >= 0),
		slog.Bool("has_tier", reg.TierCol >= 0),
		slog.Bool("has_owner", reg.OwnerCol >= 0))

	return reg, nil
}

func columnIndex(header []string, label string) int {
	if label == "" {
		return -1
	}
	for i, h := range header {
		if h == label {
			return i
		}
	}
	return -1
}
