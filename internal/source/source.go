// Package source yields complete, typed transaction records from the
// supported backends: a local CSV export, a CSV object in GCS, or a BigQuery
// table scan. Encoding concerns stay here; the engine only ever sees
// domain.Transaction values.
package source

import (
	"context"
	"fmt"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/domain"
)

// Source reads a finite transaction snapshot.
type Source interface {
	Read(ctx context.Context) ([]domain.Transaction, error)
}

// New builds the source selected by the configuration.
func New(cfg config.SourceConfig, skipMalformed bool) (Source, error) {
	switch cfg.Type {
	case "csv":
		if cfg.Path == "" {
			return nil, fmt.Errorf("source: csv source requires a path")
		}
		return &CSVSource{Path: cfg.Path, SkipMalformed: skipMalformed}, nil
	case "gcs":
		if cfg.URI == "" {
			return nil, fmt.Errorf("source: gcs source requires a uri")
		}
		return &GCSSource{URI: cfg.URI, SkipMalformed: skipMalformed}, nil
	case "bigquery":
		if cfg.ProjectID == "" || cfg.Dataset == "" || cfg.Table == "" {
			return nil, fmt.Errorf("source: bigquery source requires project_id, dataset and table")
		}
		return &BigQuerySource{ProjectID: cfg.ProjectID, Dataset: cfg.Dataset, Table: cfg.Table}, nil
	default:
		return nil, fmt.Errorf("source: unknown source type %q", cfg.Type)
	}
}
