package reports

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/olekukonko/tablewriter"
)

func formatInt64Range(op string, v int64, unit string) string {
	return fmt.Sprintf("%s%d%s", op, v, unit)
}

func formatFloatRange(op string, v float64) string {
	return fmt.Sprintf("%s%.0f", op, v)
}

// RenderDistribution writes the segment-size table to w.
func RenderDistribution(w io.Writer, dist []SegmentCount) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Segment", "Customers", "Share"})
	for _, sc := range dist {
		table.Append([]string{
			string(sc.Segment),
			strconv.Itoa(sc.Customers),
			fmt.Sprintf("%.1f%%", sc.Share*100),
		})
	}
	table.Render()
}

// RenderTop writes the top-spenders table for one segment to w.
func RenderTop(w io.Writer, segment domain.Segment, top []domain.CustomerRFMRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Customer", "Monetary", "Frequency", "Recency (days)", "RFM"})
	for _, rec := range top {
		table.Append([]string{
			rec.CustomerID,
			fmt.Sprintf("%.0f", rec.Monetary),
			strconv.FormatInt(rec.Frequency, 10),
			strconv.FormatInt(rec.RecencyDays, 10),
			strconv.Itoa(rec.RFMTotal),
		})
	}
	table.SetCaption(true, fmt.Sprintf("Top spenders in %s", segment))
	table.Render()
}

// RenderHistograms writes the three score histograms to w.
func RenderHistograms(w io.Writer, hists []Histogram) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Score 1", "Score 2", "Score 3", "Score 4", "Score 5"})
	for _, h := range hists {
		row := []string{h.Metric}
		for _, c := range h.Counts {
			row = append(row, strconv.Itoa(c))
		}
		table.Append(row)
	}
	table.Render()
}

// RenderAverages writes the per-segment averages table to w.
func RenderAverages(w io.Writer, avgs []SegmentAverage) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Segment", "Customers", "Avg Recency (days)", "Avg Frequency", "Avg Monetary"})
	for _, sa := range avgs {
		table.Append([]string{
			string(sa.Segment),
			strconv.Itoa(sa.Customers),
			fmt.Sprintf("%.1f", sa.AvgRecencyDays),
			fmt.Sprintf("%.1f", sa.AvgFrequency),
			fmt.Sprintf("%.2f", sa.AvgMonetary),
		})
	}
	table.Render()
}
