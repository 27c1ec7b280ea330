package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/rfm"
)

// mockStore records the bookkeeping calls a run makes.
type mockStore struct {
	startCalls     int
	inserted       []domain.CustomerRFMRecord
	succeededCount int
	failedErr      error
}

func (m *mockStore) StartRun(ctx context.Context, asOf time.Time, sourceTable string) (string, error) {
	m.startCalls++
	return "run-1", nil
}

func (m *mockStore) InsertRFMRecords(ctx context.Context, runID string, asOf time.Time, records []domain.CustomerRFMRecord) error {
	m.inserted = append(m.inserted, records...)
	return nil
}

func (m *mockStore) MarkRunSucceeded(ctx context.Context, runID string, customerCount int) error {
	m.succeededCount = customerCount
	return nil
}

func (m *mockStore) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	m.failedErr = runErr
}

// mockSource yields a fixed snapshot.
type mockSource struct {
	txs []domain.Transaction
	err error
}

func (m *mockSource) Read(ctx context.Context) ([]domain.Transaction, error) {
	return m.txs, m.err
}

func testState(txs []domain.Transaction, store *mockStore) *State {
	cfg := config.Default()
	cfg.AsOfDate = "2024-06-30"
	cfg.Output.Dir = "" // no file exports in unit tests
	cfg.Output.SnapshotTable = "rfm_records"

	engineCfg := rfm.Config{
		AsOfDate: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Bands:    rfm.DefaultBands(),
	}

	return &State{
		Cfg:       cfg,
		EngineCfg: engineCfg,
		Source:    &mockSource{txs: txs},
		Store:     store,
	}
}

func TestPipeline_FullRun(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: "C1", Timestamp: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Amount: 50000},
		{CustomerID: "C1", Timestamp: time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC), Amount: 30000},
		{CustomerID: "C1", Timestamp: time.Date(2024, 4, 21, 0, 0, 0, 0, time.UTC), Amount: 25000},
		{CustomerID: "C2", Timestamp: time.Date(2023, 9, 4, 0, 0, 0, 0, time.UTC), Amount: 5},
	}

	store := &mockStore{}
	state := testState(txs, store)

	if err := NewSegmentationPipeline().Execute(context.Background(), state); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if len(state.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(state.Records))
	}
	if state.Records[0].Segment != domain.SegmentPremium {
		t.Errorf("C1 segment = %q, want Premium", state.Records[0].Segment)
	}
	if state.Records[1].Segment != domain.SegmentAtRisk {
		t.Errorf("C2 segment = %q, want At Risk", state.Records[1].Segment)
	}

	if store.startCalls != 1 {
		t.Errorf("StartRun called %d times, want 1", store.startCalls)
	}
	if len(store.inserted) != 2 {
		t.Errorf("inserted %d snapshot rows, want 2", len(store.inserted))
	}
	if store.succeededCount != 2 {
		t.Errorf("MarkRunSucceeded customer count = %d, want 2", store.succeededCount)
	}
	if store.failedErr != nil {
		t.Errorf("run unexpectedly marked failed: %v", store.failedErr)
	}
}

func TestPipeline_SourceFailureMarksRunFailed(t *testing.T) {
	store := &mockStore{}
	state := testState(nil, store)
	srcErr := errors.New("bucket unreachable")
	state.Source = &mockSource{err: srcErr}

	err := NewSegmentationPipeline().Execute(context.Background(), state)
	if err == nil {
		t.Fatal("expected pipeline failure")
	}
	if !errors.Is(err, srcErr) {
		t.Errorf("error = %v, want wrapped source error", err)
	}
	if store.failedErr == nil {
		t.Error("run was not marked failed")
	}
}

func TestPipeline_InvalidDateAborts(t *testing.T) {
	store := &mockStore{}
	txs := []domain.Transaction{
		{CustomerID: "C1", Timestamp: time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), Amount: 10},
	}
	state := testState(txs, store)

	err := NewSegmentationPipeline().Execute(context.Background(), state)
	var invalid *rfm.InvalidDateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidDateError", err)
	}
	if len(store.inserted) != 0 {
		t.Error("no snapshot rows should be written on failure")
	}
	if store.failedErr == nil {
		t.Error("run was not marked failed")
	}
}

func TestPipeline_EmptySnapshotSucceeds(t *testing.T) {
	store := &mockStore{}
	state := testState(nil, store)

	if err := NewSegmentationPipeline().Execute(context.Background(), state); err != nil {
		t.Fatalf("empty snapshot should not fail: %v", err)
	}
	if len(state.Records) != 0 {
		t.Errorf("got %d records, want 0", len(state.Records))
	}
	if store.succeededCount != 0 {
		t.Errorf("MarkRunSucceeded count = %d, want 0", store.succeededCount)
	}
}

func TestPipeline_ExportsToDisk(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: "C1", Timestamp: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Amount: 100},
	}
	state := testState(txs, nil)
	state.Store = nil
	state.Cfg.Output.SnapshotTable = ""
	state.Cfg.Output.Dir = t.TempDir()

	if err := NewSegmentationPipeline().Execute(context.Background(), state); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	// Records CSV, report JSON, three histogram charts.
	if len(state.ExportedFiles) != 5 {
		t.Errorf("exported %d files, want 5: %v", len(state.ExportedFiles), state.ExportedFiles)
	}
}
