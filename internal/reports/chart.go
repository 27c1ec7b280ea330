package reports

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/rfm-insights/internal/rfm"
	"github.com/wcharczuk/go-chart/v2"
)

// RenderHistogramCharts writes one PNG bar chart per score dimension into
// outputDir, labeling bars with the run's actual band thresholds. Returns the
// paths of the files written.
func RenderHistogramCharts(outputDir string, hists []Histogram, bands rfm.Bands) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("reports: create output dir: %w", err)
	}

	var files []string
	for _, h := range hists {
		labels := BandLabels(bands, h.Metric)

		var bars []chart.Value
		for score := 1; score <= 5; score++ {
			bars = append(bars, chart.Value{
				Label: fmt.Sprintf("%d (%s)", score, labels[score-1]),
				Value: float64(h.Counts[score-1]),
			})
		}

		barChart := chart.BarChart{
			Title: fmt.Sprintf("%s score distribution", h.Metric),
			Background: chart.Style{
				Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			},
			Width:  800,
			Height: 400,
			Bars:   bars,
		}
		barChart.YAxis.ValueFormatter = func(v interface{}) string {
			if vf, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", vf)
			}
			return ""
		}

		path := filepath.Join(outputDir, fmt.Sprintf("%s_score_histogram.png", h.Metric))
		f, err := os.Create(path)
		if err != nil {
			return files, fmt.Errorf("reports: create chart file: %w", err)
		}
		if err := barChart.Render(chart.PNG, f); err != nil {
			f.Close()
			return files, fmt.Errorf("reports: render %s chart: %w", h.Metric, err)
		}
		if err := f.Close(); err != nil {
			return files, fmt.Errorf("reports: close chart file: %w", err)
		}
		files = append(files, path)
	}
	return files, nil
}
