// Package pipeline orchestrates a full segmentation run: load the snapshot,
// compute the records, persist and export the results. Each stage is a Step
// so the sequence stays testable with mocks.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/rfm-insights/internal/config"
	"github.com/dvloznov/rfm-insights/internal/gcs"
	infra "github.com/dvloznov/rfm-insights/internal/infra/bigquery"
	"github.com/dvloznov/rfm-insights/internal/source"
)

// Run executes a complete segmentation run from configuration, wiring the
// real source, BigQuery repository and GCS client. The returned state carries
// the computed records and the list of exported files.
func Run(ctx context.Context, cfg config.Config) (*State, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	src, err := source.New(cfg.Source, cfg.SkipMalformed)
	if err != nil {
		return nil, err
	}

	state := &State{
		Cfg:       cfg,
		EngineCfg: engineCfg,
		Source:    src,
	}

	// Run bookkeeping and snapshot writes need a dataset to live in.
	if cfg.Output.SnapshotTable != "" {
		if cfg.Source.ProjectID == "" || cfg.Source.Dataset == "" {
			return nil, fmt.Errorf("pipeline: snapshot_table requires project_id and dataset")
		}
		repo, err := infra.NewRepository(ctx, cfg.Source.ProjectID, cfg.Source.Dataset)
		if err != nil {
			return nil, err
		}
		defer repo.Close()
		state.Store = repo
	}

	if cfg.Output.Bucket != "" {
		state.Storage = gcs.NewClient()
	}

	if err := NewSegmentationPipeline().Execute(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
