package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dvloznov/rfm-insights/internal/domain"
)

// ExportJSON writes any report payload as indented JSON.
func ExportJSON(filename string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("reports: create export dir: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("reports: create export file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("reports: write JSON: %w", err)
	}
	return nil
}

// ExportRecordsCSV writes the full segmentation snapshot as CSV with the
// documented field list, in snapshot order.
func ExportRecordsCSV(filename string, records []domain.CustomerRFMRecord) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("reports: create export dir: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("reports: create export file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"customer_id", "recency_days", "frequency", "monetary",
		"recency_score", "frequency_score", "monetary_score",
		"rfm_total", "segment",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("reports: write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.CustomerID,
			strconv.FormatInt(rec.RecencyDays, 10),
			strconv.FormatInt(rec.Frequency, 10),
			strconv.FormatFloat(rec.Monetary, 'f', 0, 64),
			strconv.Itoa(rec.RecencyScore),
			strconv.Itoa(rec.FrequencyScore),
			strconv.Itoa(rec.MonetaryScore),
			strconv.Itoa(rec.RFMTotal),
			string(rec.Segment),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("reports: write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("reports: flush CSV: %w", err)
	}
	return nil
}

// TimestampedFilename builds "<dir>/<name>_<ts>.<ext>" so repeated exports
// never clobber each other.
func TimestampedFilename(baseDir, name, ext string) string {
	t := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, t, ext))
}
