package domain

import (
	"time"
)

// Segment is the customer tier derived from the summed RFM score.
type Segment string

const (
	SegmentPremium   Segment = "Premium"
	SegmentLoyal     Segment = "Loyal"
	SegmentPotential Segment = "Potential"
	SegmentAtRisk    Segment = "At Risk"
)

// Segments lists the four tiers in descending order of value. Reports iterate
// this slice so output ordering stays fixed across runs.
var Segments = []Segment{SegmentPremium, SegmentLoyal, SegmentPotential, SegmentAtRisk}

// CustomerMetrics holds the raw per-customer aggregates. It only exists as an
// intermediate between grouping and scoring and is recomputed from scratch on
// every run.
type CustomerMetrics struct {
	CustomerID          string
	LastTransactionDate time.Time
	TransactionCount    int64
	TotalSpend          float64
}

// CustomerRFMRecord is one row of the segmentation snapshot, one per distinct
// customer in the input.
type CustomerRFMRecord struct {
	CustomerID string `json:"customer_id"`

	RecencyDays int64   `json:"recency_days"`
	Frequency   int64   `json:"frequency"`
	Monetary    float64 `json:"monetary"` // rounded to whole currency units

	RecencyScore   int `json:"recency_score"`
	FrequencyScore int `json:"frequency_score"`
	MonetaryScore  int `json:"monetary_score"`

	RFMTotal int     `json:"rfm_total"`
	Segment  Segment `json:"segment"`
}
