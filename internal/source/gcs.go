package source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/gcs"
)

// GCSSource downloads a CSV ledger object and feeds it through the same
// parser as the local file path.
type GCSSource struct {
	URI           string
	SkipMalformed bool

	// fetch is swapped out in tests; nil means the real GCS client.
	fetch func(ctx context.Context, uri string) ([]byte, error)
}

func (s *GCSSource) Read(ctx context.Context) ([]domain.Transaction, error) {
	fetch := s.fetch
	if fetch == nil {
		fetch = gcs.Fetch
	}

	data, err := fetch(ctx, s.URI)
	if err != nil {
		return nil, fmt.Errorf("source: fetch %q: %w", s.URI, err)
	}
	return ParseCSV(bytes.NewReader(data), s.SkipMalformed)
}
