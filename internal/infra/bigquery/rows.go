package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// TransactionRow mirrors the ledger table the CSV datasets are loaded into.
type TransactionRow struct {
	CustomerID string    `bigquery:"customer_id"` // REQUIRED
	EventTS    time.Time `bigquery:"event_ts"`    // REQUIRED
	Amount     float64   `bigquery:"amount"`      // REQUIRED

	Merchant string              `bigquery:"merchant"` // NULLABLE
	Category bigquery.NullString `bigquery:"category"` // NULLABLE
	City     bigquery.NullString `bigquery:"city"`     // NULLABLE
	State    bigquery.NullString `bigquery:"state"`    // NULLABLE

	Latitude  bigquery.NullFloat64 `bigquery:"lat"`  // NULLABLE
	Longitude bigquery.NullFloat64 `bigquery:"long"` // NULLABLE

	IsFraud bigquery.NullBool `bigquery:"is_fraud"` // NULLABLE
}

// RFMRecordRow is one row of the segmentation snapshot table consumed by the
// dashboard. Field list matches domain.CustomerRFMRecord plus run bookkeeping.
type RFMRecordRow struct {
	RunID      string `bigquery:"run_id"`
	CustomerID string `bigquery:"customer_id"`

	AsOfDate civil.Date `bigquery:"as_of_date"`

	RecencyDays int64   `bigquery:"recency_days"`
	Frequency   int64   `bigquery:"frequency"`
	Monetary    float64 `bigquery:"monetary"`

	RecencyScore   int64 `bigquery:"recency_score"`
	FrequencyScore int64 `bigquery:"frequency_score"`
	MonetaryScore  int64 `bigquery:"monetary_score"`

	RFMTotal int64  `bigquery:"rfm_total"`
	Segment  string `bigquery:"segment"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// SegmentationRunRow records one engine invocation in the segmentation_runs
// table: which snapshot it scored, when, and whether it finished.
type SegmentationRunRow struct {
	RunID string `bigquery:"run_id"`

	StartedAt  time.Time              `bigquery:"started_ts"`
	FinishedAt bigquery.NullTimestamp `bigquery:"finished_ts"`

	AsOfDate    civil.Date `bigquery:"as_of_date"`
	SourceTable string     `bigquery:"source_table"`

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	CustomerCount bigquery.NullInt64 `bigquery:"customer_count"`
}
