package source

import (
	"testing"

	"github.com/dvloznov/rfm-insights/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SourceConfig
		want    string
		wantErr bool
	}{
		{"csv", config.SourceConfig{Type: "csv", Path: "tx.csv"}, "*source.CSVSource", false},
		{"csv missing path", config.SourceConfig{Type: "csv"}, "", true},
		{"gcs", config.SourceConfig{Type: "gcs", URI: "gs://b/o.csv"}, "*source.GCSSource", false},
		{"gcs missing uri", config.SourceConfig{Type: "gcs"}, "", true},
		{"bigquery", config.SourceConfig{Type: "bigquery", ProjectID: "p", Dataset: "d", Table: "t"}, "*source.BigQuerySource", false},
		{"bigquery incomplete", config.SourceConfig{Type: "bigquery", ProjectID: "p"}, "", true},
		{"unknown", config.SourceConfig{Type: "kafka"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.cfg, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			switch src.(type) {
			case *CSVSource, *GCSSource, *BigQuerySource:
			default:
				t.Errorf("unexpected source type %T", src)
			}
		})
	}
}
