package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/logger"
	"github.com/dvloznov/rfm-insights/internal/reports"
	"github.com/dvloznov/rfm-insights/internal/rfm"
	"github.com/dvloznov/rfm-insights/internal/source"
)

// Step is a single stage in the segmentation run.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps.
type State struct {
	Cfg       config.Config
	EngineCfg rfm.Config

	Source  source.Source
	Store   SnapshotStore // nil disables run bookkeeping and snapshot writes
	Storage Uploader      // nil disables GCS mirroring

	Transactions  []domain.Transaction
	Records       []domain.CustomerRFMRecord
	RunID         string
	ExportedFiles []string
}

// Step 1: StartRunStep records the run in segmentation_runs (status=RUNNING).
type StartRunStep struct{}

func (s *StartRunStep) Execute(ctx context.Context, state *State) error {
	if state.Store == nil {
		return nil
	}
	runID, err := state.Store.StartRun(ctx, state.EngineCfg.AsOfDate, state.Cfg.Source.Table)
	if err != nil {
		return err
	}
	state.RunID = runID
	return nil
}

// Step 2: LoadTransactionsStep reads the full snapshot from the source.
type LoadTransactionsStep struct{}

func (s *LoadTransactionsStep) Execute(ctx context.Context, state *State) error {
	txs, err := state.Source.Read(ctx)
	if err != nil {
		state.failRun(ctx, err)
		return err
	}
	state.Transactions = txs

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(txs)).
		Str("source", state.Cfg.Source.Type).
		Msg("Loaded transaction snapshot")
	return nil
}

// Step 3: ComputeStep runs the engine.
type ComputeStep struct{}

func (s *ComputeStep) Execute(ctx context.Context, state *State) error {
	records, err := rfm.ComputeSegmentation(state.Transactions, state.EngineCfg)
	if err != nil {
		state.failRun(ctx, err)
		return err
	}
	state.Records = records

	log := logger.FromContext(ctx)
	log.Info().
		Int("customers", len(records)).
		Str("as_of", state.EngineCfg.AsOfDate.Format("2006-01-02")).
		Msg("Segmentation computed")
	return nil
}

// Step 4: PersistSnapshotStep writes the records into the snapshot table.
type PersistSnapshotStep struct{}

func (s *PersistSnapshotStep) Execute(ctx context.Context, state *State) error {
	if state.Store == nil || state.Cfg.Output.SnapshotTable == "" {
		return nil
	}
	if err := state.Store.InsertRFMRecords(ctx, state.RunID, state.EngineCfg.AsOfDate, state.Records); err != nil {
		state.failRun(ctx, err)
		return err
	}
	return nil
}

// Step 5: ExportStep writes the snapshot and the derived reports to disk.
type ExportStep struct{}

func (s *ExportStep) Execute(ctx context.Context, state *State) error {
	dir := state.Cfg.Output.Dir
	if dir == "" {
		return nil
	}

	recordsCSV := reports.TimestampedFilename(dir, "rfm_records", "csv")
	if err := reports.ExportRecordsCSV(recordsCSV, state.Records); err != nil {
		state.failRun(ctx, err)
		return err
	}
	state.ExportedFiles = append(state.ExportedFiles, recordsCSV)

	payload := map[string]interface{}{
		"as_of_date":   state.EngineCfg.AsOfDate.Format("2006-01-02"),
		"records":      state.Records,
		"distribution": reports.SegmentDistribution(state.Records),
		"averages":     reports.SegmentAverages(state.Records),
		"histograms":   reports.ScoreHistograms(state.Records),
	}
	reportJSON := reports.TimestampedFilename(dir, "rfm_report", "json")
	if err := reports.ExportJSON(reportJSON, payload); err != nil {
		state.failRun(ctx, err)
		return err
	}
	state.ExportedFiles = append(state.ExportedFiles, reportJSON)

	charts, err := reports.RenderHistogramCharts(dir, reports.ScoreHistograms(state.Records), state.EngineCfg.Bands)
	if err != nil {
		state.failRun(ctx, err)
		return err
	}
	state.ExportedFiles = append(state.ExportedFiles, charts...)

	return nil
}

// Step 6: MirrorStep copies the exports into the configured GCS bucket.
type MirrorStep struct{}

func (s *MirrorStep) Execute(ctx context.Context, state *State) error {
	bucket := state.Cfg.Output.Bucket
	if bucket == "" || state.Storage == nil {
		return nil
	}
	for _, path := range state.ExportedFiles {
		object := filepath.Base(path)
		if err := state.Storage.Upload(ctx, bucket, object, path); err != nil {
			state.failRun(ctx, err)
			return err
		}
	}
	return nil
}

// Step 7: FinishRunStep marks the run SUCCESS.
type FinishRunStep struct{}

func (s *FinishRunStep) Execute(ctx context.Context, state *State) error {
	if state.Store == nil || state.RunID == "" {
		return nil
	}
	return state.Store.MarkRunSucceeded(ctx, state.RunID, len(state.Records))
}

// failRun marks the bookkeeping row FAILED when one exists. Best effort: the
// original error is what propagates.
func (st *State) failRun(ctx context.Context, err error) {
	if st.Store != nil && st.RunID != "" {
		st.Store.MarkRunFailed(ctx, st.RunID, err)
	}
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewSegmentationPipeline creates the standard pipeline for a full run.
func NewSegmentationPipeline() *Pipeline {
	return NewPipeline(
		&StartRunStep{},
		&LoadTransactionsStep{},
		&ComputeStep{},
		&PersistSnapshotStep{},
		&ExportStep{},
		&MirrorStep{},
		&FinishRunStep{},
	)
}
