package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/rfm-insights/internal/domain"
)

// SnapshotStore is the subset of the BigQuery repository the pipeline needs.
// Kept narrow so tests can supply a mock without a live dataset.
type SnapshotStore interface {
	StartRun(ctx context.Context, asOf time.Time, sourceTable string) (string, error)
	InsertRFMRecords(ctx context.Context, runID string, asOf time.Time, records []domain.CustomerRFMRecord) error
	MarkRunSucceeded(ctx context.Context, runID string, customerCount int) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)
}

// Uploader mirrors run artifacts to object storage.
type Uploader interface {
	Upload(ctx context.Context, bucketName, objectName, filePath string) error
}
