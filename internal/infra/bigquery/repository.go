package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	runsTable     = "segmentation_runs"
	snapshotTable = "rfm_records"
)

// SnapshotRepository is the interface the rest of the module programs
// against; Repository is its BigQuery-backed implementation.
type SnapshotRepository interface {
	QueryTransactions(ctx context.Context, table string) ([]domain.Transaction, error)
	InsertRFMRecords(ctx context.Context, runID string, asOf time.Time, records []domain.CustomerRFMRecord) error
	LatestRFMRecords(ctx context.Context) ([]domain.CustomerRFMRecord, error)
	StartRun(ctx context.Context, asOf time.Time, sourceTable string) (string, error)
	MarkRunSucceeded(ctx context.Context, runID string, customerCount int) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)
}

// Repository holds a shared BigQuery client scoped to one project/dataset so
// each operation does not reopen a connection.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return &Repository{client: client, dataset: dataset}, nil
}

func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// QueryTransactions scans the ledger table into domain transactions.
func (r *Repository) QueryTransactions(ctx context.Context, table string) ([]domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			customer_id,
			event_ts,
			amount,
			merchant,
			category,
			city,
			state,
			lat,
			long,
			is_fraud
		FROM %s.%s
		ORDER BY customer_id, event_ts
	`, r.dataset, table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iterating rows: %w", err)
		}
		txs = append(txs, rowToTransaction(&row))
	}
	return txs, nil
}

func rowToTransaction(row *TransactionRow) domain.Transaction {
	tx := domain.Transaction{
		CustomerID: row.CustomerID,
		Timestamp:  row.EventTS,
		Amount:     row.Amount,
		Merchant:   row.Merchant,
	}
	if row.Category.Valid {
		tx.Category = row.Category.StringVal
	}
	if row.City.Valid {
		tx.City = row.City.StringVal
	}
	if row.State.Valid {
		tx.State = row.State.StringVal
	}
	if row.Latitude.Valid {
		lat := row.Latitude.Float64
		tx.Latitude = &lat
	}
	if row.Longitude.Valid {
		lng := row.Longitude.Float64
		tx.Longitude = &lng
	}
	if row.IsFraud.Valid {
		tx.IsFraud = row.IsFraud.Bool
	}
	return tx
}

// InsertRFMRecords streams the segmentation snapshot into the records table.
func (r *Repository) InsertRFMRecords(ctx context.Context, runID string, asOf time.Time, records []domain.CustomerRFMRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	asOfDate := civil.DateOf(asOf.UTC())
	rows := make([]*RFMRecordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &RFMRecordRow{
			RunID:          runID,
			CustomerID:     rec.CustomerID,
			AsOfDate:       asOfDate,
			RecencyDays:    rec.RecencyDays,
			Frequency:      rec.Frequency,
			Monetary:       rec.Monetary,
			RecencyScore:   int64(rec.RecencyScore),
			FrequencyScore: int64(rec.FrequencyScore),
			MonetaryScore:  int64(rec.MonetaryScore),
			RFMTotal:       int64(rec.RFMTotal),
			Segment:        string(rec.Segment),
			CreatedTS:      now,
		})
	}

	inserter := r.client.Dataset(r.dataset).Table(snapshotTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertRFMRecords: inserting rows: %w", err)
	}
	return nil
}

// LatestRFMRecords returns the snapshot written by the most recent successful
// run, ordered by customer ID.
func (r *Repository) LatestRFMRecords(ctx context.Context) ([]domain.CustomerRFMRecord, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			rec.customer_id,
			rec.recency_days,
			rec.frequency,
			rec.monetary,
			rec.recency_score,
			rec.frequency_score,
			rec.monetary_score,
			rec.rfm_total,
			rec.segment
		FROM %s.%s rec
		WHERE rec.run_id = (
			SELECT run_id FROM %s.%s
			WHERE status = 'SUCCESS'
			ORDER BY started_ts DESC
			LIMIT 1
		)
		ORDER BY rec.customer_id
	`, r.dataset, snapshotTable, r.dataset, runsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LatestRFMRecords: query read: %w", err)
	}

	var records []domain.CustomerRFMRecord
	for {
		var row struct {
			CustomerID     string  `bigquery:"customer_id"`
			RecencyDays    int64   `bigquery:"recency_days"`
			Frequency      int64   `bigquery:"frequency"`
			Monetary       float64 `bigquery:"monetary"`
			RecencyScore   int64   `bigquery:"recency_score"`
			FrequencyScore int64   `bigquery:"frequency_score"`
			MonetaryScore  int64   `bigquery:"monetary_score"`
			RFMTotal       int64   `bigquery:"rfm_total"`
			Segment        string  `bigquery:"segment"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LatestRFMRecords: iterating rows: %w", err)
		}
		records = append(records, domain.CustomerRFMRecord{
			CustomerID:     row.CustomerID,
			RecencyDays:    row.RecencyDays,
			Frequency:      row.Frequency,
			Monetary:       row.Monetary,
			RecencyScore:   int(row.RecencyScore),
			FrequencyScore: int(row.FrequencyScore),
			MonetaryScore:  int(row.MonetaryScore),
			RFMTotal:       int(row.RFMTotal),
			Segment:        domain.Segment(row.Segment),
		})
	}
	return records, nil
}

// StartRun inserts a segmentation_runs row with status=RUNNING and returns the
// generated run ID.
func (r *Repository) StartRun(ctx context.Context, asOf time.Time, sourceTable string) (string, error) {
	runID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (run_id, started_ts, as_of_date, source_table, status)
		VALUES (@run_id, @started_ts, @as_of_date, @source_table, @status)
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "as_of_date", Value: asOf.Format("2006-01-02")},
		{Name: "source_table", Value: sourceTable},
		{Name: "status", Value: "RUNNING"},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return "", fmt.Errorf("StartRun: %w", err)
	}
	return runID, nil
}

// MarkRunSucceeded sets status=SUCCESS, finished_ts and the output row count.
func (r *Repository) MarkRunSucceeded(ctx context.Context, runID string, customerCount int) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    customer_count = @customer_count,
		    error_message = ""
		WHERE run_id = @run_id
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "customer_count", Value: customerCount},
		{Name: "run_id", Value: runID},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return fmt.Errorf("MarkRunSucceeded: %w", err)
	}
	return nil
}

// MarkRunFailed sets status=FAILED with a truncated error message. Failures
// here are logged by the caller, not returned, since the run already failed.
func (r *Repository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	// Best effort; the original error is what matters to the caller.
	_ = r.runAndWait(ctx, q)
}

func (r *Repository) runAndWait(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
