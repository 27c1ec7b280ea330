package rfm

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dvloznov/rfm-insights/internal/domain"
)

var testAsOf = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{AsOfDate: testAsOf, Bands: DefaultBands()}
}

func tx(customer string, daysBefore int, amount float64) domain.Transaction {
	return domain.Transaction{
		CustomerID: customer,
		Timestamp:  testAsOf.AddDate(0, 0, -daysBefore),
		Amount:     amount,
	}
}

func TestComputeSegmentation_PremiumScenario(t *testing.T) {
	// Three purchases, most recent 10 days before the as-of date.
	txs := []domain.Transaction{
		tx("C1", 10, 50000),
		tx("C1", 40, 30000),
		tx("C1", 70, 25000),
	}

	records, err := ComputeSegmentation(txs, testConfig())
	if err != nil {
		t.Fatalf("ComputeSegmentation failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.RecencyDays != 10 || rec.Frequency != 3 || rec.Monetary != 105000 {
		t.Errorf("raw metrics = (%d, %d, %v), want (10, 3, 105000)",
			rec.RecencyDays, rec.Frequency, rec.Monetary)
	}
	if rec.RecencyScore != 5 || rec.FrequencyScore != 1 || rec.MonetaryScore != 5 {
		t.Errorf("scores = (%d, %d, %d), want (5, 1, 5)",
			rec.RecencyScore, rec.FrequencyScore, rec.MonetaryScore)
	}
	if rec.RFMTotal != 11 || rec.Segment != domain.SegmentPremium {
		t.Errorf("total/segment = (%d, %q), want (11, Premium)", rec.RFMTotal, rec.Segment)
	}
}

func TestComputeSegmentation_AtRiskScenario(t *testing.T) {
	// One tiny purchase, 300 days stale.
	records, err := ComputeSegmentation([]domain.Transaction{tx("C2", 300, 5)}, testConfig())
	if err != nil {
		t.Fatalf("ComputeSegmentation failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.RecencyScore != 1 || rec.FrequencyScore != 1 || rec.MonetaryScore != 1 {
		t.Errorf("scores = (%d, %d, %d), want (1, 1, 1)",
			rec.RecencyScore, rec.FrequencyScore, rec.MonetaryScore)
	}
	if rec.RFMTotal != 3 || rec.Segment != domain.SegmentAtRisk {
		t.Errorf("total/segment = (%d, %q), want (3, At Risk)", rec.RFMTotal, rec.Segment)
	}
}

func TestComputeSegmentation_MonetaryBoundary(t *testing.T) {
	// Scoring uses the unrounded spend: 99999.99 rounds to 100000 for display
	// but still scores 4.
	records, err := ComputeSegmentation([]domain.Transaction{tx("C3", 5, 99999.99)}, testConfig())
	if err != nil {
		t.Fatalf("ComputeSegmentation failed: %v", err)
	}
	if records[0].MonetaryScore != 4 {
		t.Errorf("MonetaryScore = %d, want 4", records[0].MonetaryScore)
	}
	if records[0].Monetary != 100000 {
		t.Errorf("Monetary = %v, want 100000", records[0].Monetary)
	}
}

func TestComputeSegmentation_EmptyInput(t *testing.T) {
	records, err := ComputeSegmentation(nil, testConfig())
	if err != nil {
		t.Fatalf("empty input should not fail: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestComputeSegmentation_CountInvariant(t *testing.T) {
	txs := []domain.Transaction{
		tx("A", 1, 10), tx("A", 2, 20), tx("A", 3, 30),
		tx("B", 5, 100),
		tx("C", 200, 1), tx("C", 250, 2),
	}

	records, err := ComputeSegmentation(txs, testConfig())
	if err != nil {
		t.Fatalf("ComputeSegmentation failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 (one per distinct customer)", len(records))
	}

	// Sorted by customer ID for deterministic output.
	for i, want := range []string{"A", "B", "C"} {
		if records[i].CustomerID != want {
			t.Errorf("records[%d].CustomerID = %q, want %q", i, records[i].CustomerID, want)
		}
	}

	for _, rec := range records {
		if rec.RFMTotal < 3 || rec.RFMTotal > 15 {
			t.Errorf("customer %s: rfm_total %d out of [3,15]", rec.CustomerID, rec.RFMTotal)
		}
		validSegment := false
		for _, s := range domain.Segments {
			if rec.Segment == s {
				validSegment = true
			}
		}
		if !validSegment {
			t.Errorf("customer %s: unknown segment %q", rec.CustomerID, rec.Segment)
		}
	}
}

func TestComputeSegmentation_Idempotent(t *testing.T) {
	txs := []domain.Transaction{
		tx("A", 15, 12000.50), tx("A", 60, 300),
		tx("B", 400, 99999.99),
		tx("C", 1, 250000),
	}

	first, err := ComputeSegmentation(txs, testConfig())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := ComputeSegmentation(txs, testConfig())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reruns differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestComputeSegmentation_DoesNotMutateInput(t *testing.T) {
	txs := []domain.Transaction{tx("A", 10, 100), tx("B", 20, 200)}
	snapshot := make([]domain.Transaction, len(txs))
	copy(snapshot, txs)

	if _, err := ComputeSegmentation(txs, testConfig()); err != nil {
		t.Fatalf("ComputeSegmentation failed: %v", err)
	}
	if !reflect.DeepEqual(txs, snapshot) {
		t.Error("input slice was mutated")
	}
}

func TestComputeSegmentation_MalformedStrict(t *testing.T) {
	txs := []domain.Transaction{
		tx("A", 10, 100),
		{CustomerID: "", Timestamp: testAsOf, Amount: 5}, // missing customer
	}

	_, err := ComputeSegmentation(txs, testConfig())
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedRecordError", err)
	}
	if malformed.Index != 1 || malformed.Field != "customer_id" {
		t.Errorf("error = %+v, want index 1 field customer_id", malformed)
	}
}

func TestComputeSegmentation_MalformedTolerant(t *testing.T) {
	txs := []domain.Transaction{
		tx("A", 10, 100),
		{CustomerID: "B", Amount: 5}, // zero timestamp
		tx("C", 20, 50),
	}

	cfg := testConfig()
	cfg.SkipMalformed = true

	records, err := ComputeSegmentation(txs, cfg)
	if err != nil {
		t.Fatalf("tolerant run failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (malformed record dropped)", len(records))
	}
}

func TestComputeSegmentation_InvalidDate(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: "A", Timestamp: testAsOf.AddDate(0, 0, 3), Amount: 10},
	}

	_, err := ComputeSegmentation(txs, testConfig())
	var invalid *InvalidDateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidDateError", err)
	}
	if invalid.CustomerID != "A" {
		t.Errorf("CustomerID = %q, want A", invalid.CustomerID)
	}
}

func TestComputeSegmentation_NegativeAmountsSumAsIs(t *testing.T) {
	// A refund reduces the monetary total; no special-casing.
	txs := []domain.Transaction{
		tx("A", 5, 30000),
		tx("A", 6, -5000),
	}

	records, err := ComputeSegmentation(txs, testConfig())
	if err != nil {
		t.Fatalf("ComputeSegmentation failed: %v", err)
	}
	if records[0].Monetary != 25000 {
		t.Errorf("Monetary = %v, want 25000", records[0].Monetary)
	}
	if records[0].MonetaryScore != 3 {
		t.Errorf("MonetaryScore = %d, want 3", records[0].MonetaryScore)
	}
}

func TestComputeSegmentation_PartitionedMatchesSequential(t *testing.T) {
	var txs []domain.Transaction
	customers := []string{"C01", "C02", "C03", "C04", "C05", "C06", "C07", "C08"}
	for i, c := range customers {
		for d := 1; d <= i+1; d++ {
			txs = append(txs, tx(c, d*7, float64(i*1000+d)))
		}
	}

	sequential, err := ComputeSegmentation(txs, testConfig())
	if err != nil {
		t.Fatalf("sequential run failed: %v", err)
	}

	cfg := testConfig()
	cfg.Workers = 4
	partitioned, err := ComputeSegmentation(txs, cfg)
	if err != nil {
		t.Fatalf("partitioned run failed: %v", err)
	}

	if !reflect.DeepEqual(sequential, partitioned) {
		t.Errorf("partitioned output differs from sequential:\nseq:  %+v\npart: %+v",
			sequential, partitioned)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = Config{Bands: DefaultBands()}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero as-of date")
	}

	cfg = testConfig()
	cfg.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative worker count")
	}
}
