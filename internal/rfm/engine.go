package rfm

import (
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/rfm-insights/internal/domain"
)

// Config parameterizes a segmentation run. AsOfDate is the fixed reference
// date recency is measured against; it is deliberately not derived from the
// wall clock so that reruns over the same snapshot are reproducible.
type Config struct {
	AsOfDate time.Time
	Bands    Bands

	// SkipMalformed drops records that fail validation instead of failing the
	// whole run.
	SkipMalformed bool

	// Workers > 1 enables hash-partitioned aggregation. The result is
	// identical to the sequential path; only the grouping work is spread out.
	Workers int
}

// Validate checks the run configuration before any data is touched.
func (c Config) Validate() error {
	if c.AsOfDate.IsZero() {
		return fmt.Errorf("as-of date is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return c.Bands.Validate()
}

// SegmentFor maps a summed RFM score (range 3-15) to a tier label. Evaluation
// order matters: a total of exactly 11 is Premium, exactly 9 is Loyal.
func SegmentFor(total int) domain.Segment {
	switch {
	case total >= 11:
		return domain.SegmentPremium
	case total >= 9:
		return domain.SegmentLoyal
	case total >= 6:
		return domain.SegmentPotential
	default:
		return domain.SegmentAtRisk
	}
}

// ComputeSegmentation derives one CustomerRFMRecord per distinct customer in
// the input. The transform is pure: it never mutates its input, holds no state
// between runs, and emits either the full record set or an error, never a
// partial result. Output is sorted by customer ID so identical inputs produce
// byte-identical output.
//
// Stages: validate -> group/aggregate -> score -> label.
func ComputeSegmentation(txs []domain.Transaction, cfg Config) ([]domain.CustomerRFMRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rfm: invalid config: %w", err)
	}

	clean, err := validateTransactions(txs, cfg.SkipMalformed)
	if err != nil {
		return nil, err
	}

	// Zero transactions is a valid state, not a failure.
	if len(clean) == 0 {
		return []domain.CustomerRFMRecord{}, nil
	}

	var metrics map[string]*domain.CustomerMetrics
	if cfg.Workers > 1 {
		metrics = aggregatePartitioned(clean, cfg.Workers)
	} else {
		metrics = aggregate(clean)
	}

	records := make([]domain.CustomerRFMRecord, 0, len(metrics))
	asOf := civil.DateOf(cfg.AsOfDate.UTC())
	for _, m := range metrics {
		rec, err := scoreCustomer(m, asOf, cfg)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})
	return records, nil
}

// validateTransactions runs the input contract checks once, before any
// aggregation begins. Scoring cannot fail after this point.
func validateTransactions(txs []domain.Transaction, skipMalformed bool) ([]domain.Transaction, error) {
	clean := make([]domain.Transaction, 0, len(txs))
	for i, tx := range txs {
		var field string
		switch {
		case tx.CustomerID == "":
			field = "customer_id"
		case tx.Timestamp.IsZero():
			field = "timestamp"
		case math.IsNaN(tx.Amount):
			field = "amount"
		default:
			clean = append(clean, tx)
			continue
		}
		if skipMalformed {
			continue
		}
		return nil, &MalformedRecordError{Index: i, Field: field}
	}
	return clean, nil
}

// aggregate folds the ledger into per-customer raw metrics in a single pass.
func aggregate(txs []domain.Transaction) map[string]*domain.CustomerMetrics {
	metrics := make(map[string]*domain.CustomerMetrics)
	for _, tx := range txs {
		m, ok := metrics[tx.CustomerID]
		if !ok {
			m = &domain.CustomerMetrics{CustomerID: tx.CustomerID}
			metrics[tx.CustomerID] = m
		}
		if tx.Timestamp.After(m.LastTransactionDate) {
			m.LastTransactionDate = tx.Timestamp
		}
		m.TransactionCount++
		m.TotalSpend += tx.Amount
	}
	return metrics
}

// scoreCustomer turns raw metrics into a full RFM record. Scores are computed
// on the unrounded spend; only the reported monetary value is rounded to whole
// currency units.
func scoreCustomer(m *domain.CustomerMetrics, asOf civil.Date, cfg Config) (domain.CustomerRFMRecord, error) {
	last := civil.DateOf(m.LastTransactionDate.UTC())
	if last.After(asOf) {
		return domain.CustomerRFMRecord{}, &InvalidDateError{
			CustomerID:      m.CustomerID,
			LastTransaction: m.LastTransactionDate,
			AsOf:            cfg.AsOfDate,
		}
	}
	recencyDays := int64(asOf.DaysSince(last))

	r := cfg.Bands.RecencyScore(recencyDays)
	f := cfg.Bands.FrequencyScore(m.TransactionCount)
	mo := cfg.Bands.MonetaryScore(m.TotalSpend)
	total := r + f + mo

	return domain.CustomerRFMRecord{
		CustomerID:     m.CustomerID,
		RecencyDays:    recencyDays,
		Frequency:      m.TransactionCount,
		Monetary:       math.Round(m.TotalSpend),
		RecencyScore:   r,
		FrequencyScore: f,
		MonetaryScore:  mo,
		RFMTotal:       total,
		Segment:        SegmentFor(total),
	}, nil
}
