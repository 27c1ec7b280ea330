// Package reports holds the read-only aggregations over a segmentation
// snapshot. Every function here is a pure transform of its input; the
// snapshot itself is never modified.
package reports

import (
	"sort"

	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/rfm"
)

// SegmentCount is one row of the segment-size distribution.
type SegmentCount struct {
	Segment   domain.Segment `json:"segment"`
	Customers int            `json:"customers"`
	Share     float64        `json:"share"` // fraction of all customers, 0-1
}

// SegmentDistribution counts customers per tier. All four tiers appear in the
// output, zero-count tiers included, in fixed display order.
func SegmentDistribution(records []domain.CustomerRFMRecord) []SegmentCount {
	counts := make(map[domain.Segment]int)
	for _, rec := range records {
		counts[rec.Segment]++
	}

	out := make([]SegmentCount, 0, len(domain.Segments))
	for _, seg := range domain.Segments {
		sc := SegmentCount{Segment: seg, Customers: counts[seg]}
		if len(records) > 0 {
			sc.Share = float64(counts[seg]) / float64(len(records))
		}
		out = append(out, sc)
	}
	return out
}

// TopByMonetary returns the n highest-spending customers within a segment.
// Ties on monetary break by customer ID so reruns stay deterministic.
func TopByMonetary(records []domain.CustomerRFMRecord, segment domain.Segment, n int) []domain.CustomerRFMRecord {
	var members []domain.CustomerRFMRecord
	for _, rec := range records {
		if rec.Segment == segment {
			members = append(members, rec)
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Monetary != members[j].Monetary {
			return members[i].Monetary > members[j].Monetary
		}
		return members[i].CustomerID < members[j].CustomerID
	})

	if n > 0 && len(members) > n {
		members = members[:n]
	}
	return members
}

// Histogram is the per-band customer count for one of the three scores.
// Counts[i] holds the number of customers scored i+1.
type Histogram struct {
	Metric string `json:"metric"` // "recency", "frequency" or "monetary"
	Counts [5]int `json:"counts"`
}

// ScoreHistograms builds one histogram per score dimension. The engine and
// this report share the same rfm.Bands, so a band boundary can never drift
// between scoring and reporting.
func ScoreHistograms(records []domain.CustomerRFMRecord) []Histogram {
	recency := Histogram{Metric: "recency"}
	frequency := Histogram{Metric: "frequency"}
	monetary := Histogram{Metric: "monetary"}

	for _, rec := range records {
		recency.Counts[rec.RecencyScore-1]++
		frequency.Counts[rec.FrequencyScore-1]++
		monetary.Counts[rec.MonetaryScore-1]++
	}
	return []Histogram{recency, frequency, monetary}
}

// BandLabels renders human-readable band descriptions for a histogram axis,
// from score 1 up to score 5, using the run's threshold configuration.
func BandLabels(bands rfm.Bands, metric string) [5]string {
	var labels [5]string
	switch metric {
	case "recency":
		labels[4] = formatInt64Range("<=", bands.RecencyDays[0], "d")
		labels[3] = formatInt64Range("<=", bands.RecencyDays[1], "d")
		labels[2] = formatInt64Range("<=", bands.RecencyDays[2], "d")
		labels[1] = formatInt64Range("<=", bands.RecencyDays[3], "d")
		labels[0] = formatInt64Range(">", bands.RecencyDays[3], "d")
	case "frequency":
		labels[4] = formatInt64Range(">=", bands.Frequency[0], "")
		labels[3] = formatInt64Range(">=", bands.Frequency[1], "")
		labels[2] = formatInt64Range(">=", bands.Frequency[2], "")
		labels[1] = formatInt64Range(">=", bands.Frequency[3], "")
		labels[0] = formatInt64Range("<", bands.Frequency[3], "")
	case "monetary":
		labels[4] = formatFloatRange(">=", bands.Monetary[0])
		labels[3] = formatFloatRange(">=", bands.Monetary[1])
		labels[2] = formatFloatRange(">=", bands.Monetary[2])
		labels[1] = formatFloatRange(">=", bands.Monetary[3])
		labels[0] = formatFloatRange("<", bands.Monetary[3])
	}
	return labels
}

// SegmentAverage carries the mean raw metrics for one tier.
type SegmentAverage struct {
	Segment        domain.Segment `json:"segment"`
	Customers      int            `json:"customers"`
	AvgRecencyDays float64        `json:"avg_recency_days"`
	AvgFrequency   float64        `json:"avg_frequency"`
	AvgMonetary    float64        `json:"avg_monetary"`
}

// SegmentAverages computes per-tier means of the three raw metrics. Tiers
// with no members report zero averages.
func SegmentAverages(records []domain.CustomerRFMRecord) []SegmentAverage {
	type acc struct {
		n         int
		recency   int64
		frequency int64
		monetary  float64
	}
	sums := make(map[domain.Segment]*acc)
	for _, rec := range records {
		a, ok := sums[rec.Segment]
		if !ok {
			a = &acc{}
			sums[rec.Segment] = a
		}
		a.n++
		a.recency += rec.RecencyDays
		a.frequency += rec.Frequency
		a.monetary += rec.Monetary
	}

	out := make([]SegmentAverage, 0, len(domain.Segments))
	for _, seg := range domain.Segments {
		sa := SegmentAverage{Segment: seg}
		if a, ok := sums[seg]; ok && a.n > 0 {
			sa.Customers = a.n
			sa.AvgRecencyDays = float64(a.recency) / float64(a.n)
			sa.AvgFrequency = float64(a.frequency) / float64(a.n)
			sa.AvgMonetary = a.monetary / float64(a.n)
		}
		out = append(out, sa)
	}
	return out
}
