package source

import (
	"context"
	"fmt"

	"github.com/dvloznov/rfm-insights/internal/domain"
	infra "github.com/dvloznov/rfm-insights/internal/infra/bigquery"
)

// BigQuerySource scans the ledger table directly. Malformed rows cannot occur
// here: the table schema already enforces the required fields.
type BigQuerySource struct {
	ProjectID string
	Dataset   string
	Table     string

	// repo is swapped out in tests; nil means a real client per Read.
	repo interface {
		QueryTransactions(ctx context.Context, table string) ([]domain.Transaction, error)
	}
}

func (s *BigQuerySource) Read(ctx context.Context) ([]domain.Transaction, error) {
	repo := s.repo
	if repo == nil {
		r, err := infra.NewRepository(ctx, s.ProjectID, s.Dataset)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		defer r.Close()
		repo = r
	}
	return repo.QueryTransactions(ctx, s.Table)
}
