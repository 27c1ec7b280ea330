package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/rfm-insights/internal/rfm"
)

// SourceConfig selects where the transaction snapshot comes from.
type SourceConfig struct {
	// Type is one of "csv", "gcs", "bigquery".
	Type string `json:"type"`

	// Path is the local CSV file for the "csv" type.
	Path string `json:"path,omitempty"`

	// URI is the gs://bucket/object location for the "gcs" type.
	URI string `json:"uri,omitempty"`

	// BigQuery settings for the "bigquery" type.
	ProjectID string `json:"project_id,omitempty"`
	Dataset   string `json:"dataset,omitempty"`
	Table     string `json:"table,omitempty"`
}

// OutputConfig controls where run artifacts land.
type OutputConfig struct {
	// Dir receives JSON/CSV exports and histogram charts.
	Dir string `json:"dir,omitempty"`

	// Bucket, when set, mirrors exports to GCS for the dashboard to pick up.
	Bucket string `json:"bucket,omitempty"`

	// SnapshotTable, when set, writes the segmentation snapshot back into
	// BigQuery (project/dataset reuse the source settings).
	SnapshotTable string `json:"snapshot_table,omitempty"`
}

// Config is the full file-backed run configuration. The as-of date and the
// band thresholds live here rather than in code so a recalibration never
// requires a rebuild.
type Config struct {
	// AsOfDate is the fixed reference date for recency, formatted 2006-01-02.
	AsOfDate string `json:"as_of_date"`

	Bands rfm.Bands `json:"bands"`

	SkipMalformed bool `json:"skip_malformed"`
	Workers       int  `json:"workers"`

	Source SourceConfig `json:"source"`
	Output OutputConfig `json:"output"`
}

// Default returns the configuration the dashboard ships with. The as-of date
// is intentionally empty: it must be chosen per run, never defaulted to the
// wall clock.
func Default() Config {
	return Config{
		Bands:  rfm.DefaultBands(),
		Source: SourceConfig{Type: "csv"},
		Output: OutputConfig{Dir: "reports"},
	}
}

// Load reads a JSON config file, then applies environment overrides. A missing
// path yields the defaults so callers can run with env vars alone.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets deployment environments override file settings without
// touching the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RFM_AS_OF_DATE"); v != "" {
		cfg.AsOfDate = v
	}
	if v := os.Getenv("RFM_SOURCE_TYPE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("RFM_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("RFM_SOURCE_URI"); v != "" {
		cfg.Source.URI = v
	}
	if v := os.Getenv("BQ_PROJECT_ID"); v != "" {
		cfg.Source.ProjectID = v
	}
	if v := os.Getenv("BQ_DATASET"); v != "" {
		cfg.Source.Dataset = v
	}
	if v := os.Getenv("GCS_BUCKET"); v != "" {
		cfg.Output.Bucket = v
	}
}

// EngineConfig converts the file settings into a validated rfm.Config.
func (c Config) EngineConfig() (rfm.Config, error) {
	if c.AsOfDate == "" {
		return rfm.Config{}, fmt.Errorf("config: as_of_date is required (set it in the file or RFM_AS_OF_DATE)")
	}
	asOf, err := time.Parse("2006-01-02", c.AsOfDate)
	if err != nil {
		return rfm.Config{}, fmt.Errorf("config: invalid as_of_date %q: %w", c.AsOfDate, err)
	}

	engineCfg := rfm.Config{
		AsOfDate:      asOf.UTC(),
		Bands:         c.Bands,
		SkipMalformed: c.SkipMalformed,
		Workers:       c.Workers,
	}
	if err := engineCfg.Validate(); err != nil {
		return rfm.Config{}, err
	}
	return engineCfg, nil
}
