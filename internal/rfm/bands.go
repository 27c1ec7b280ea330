package rfm

import (
	"fmt"
)

// Bands holds the threshold cut points that map each raw metric onto a 1-5
// score. Each array carries the bounds for scores 5, 4, 3 and 2 in evaluation
// order; anything past the last bound scores 1. The first matching band wins,
// so boundary values (exactly 30 days, exactly 1000 transactions) land in the
// higher-scoring band.
//
// The same structure feeds both the scoring stage and the band-distribution
// report, so the two can never disagree about where a band starts.
type Bands struct {
	// RecencyDays are inclusive upper bounds: recency <= RecencyDays[i].
	RecencyDays [4]int64 `json:"recency_days"`
	// Frequency are inclusive lower bounds: frequency >= Frequency[i].
	Frequency [4]int64 `json:"frequency"`
	// Monetary are inclusive lower bounds: monetary >= Monetary[i].
	Monetary [4]float64 `json:"monetary"`
}

// DefaultBands returns the calibration used by the production dashboard.
func DefaultBands() Bands {
	return Bands{
		RecencyDays: [4]int64{30, 90, 150, 210},
		Frequency:   [4]int64{1000, 500, 200, 50},
		Monetary:    [4]float64{100000, 50000, 25000, 10000},
	}
}

// Validate checks that each threshold sequence is strictly ordered so the
// bands stay non-overlapping and exhaustive.
func (b Bands) Validate() error {
	for i := 1; i < len(b.RecencyDays); i++ {
		if b.RecencyDays[i] <= b.RecencyDays[i-1] {
			return fmt.Errorf("recency thresholds must be strictly increasing, got %v", b.RecencyDays)
		}
	}
	for i := 1; i < len(b.Frequency); i++ {
		if b.Frequency[i] >= b.Frequency[i-1] {
			return fmt.Errorf("frequency thresholds must be strictly decreasing, got %v", b.Frequency)
		}
	}
	for i := 1; i < len(b.Monetary); i++ {
		if b.Monetary[i] >= b.Monetary[i-1] {
			return fmt.Errorf("monetary thresholds must be strictly decreasing, got %v", b.Monetary)
		}
	}
	return nil
}

// RecencyScore maps days-since-last-transaction to a 1-5 score. Fewer days is
// better.
func (b Bands) RecencyScore(recencyDays int64) int {
	for i, bound := range b.RecencyDays {
		if recencyDays <= bound {
			return 5 - i
		}
	}
	return 1
}

// FrequencyScore maps a transaction count to a 1-5 score.
func (b Bands) FrequencyScore(frequency int64) int {
	for i, bound := range b.Frequency {
		if frequency >= bound {
			return 5 - i
		}
	}
	return 1
}

// MonetaryScore maps total spend to a 1-5 score.
func (b Bands) MonetaryScore(monetary float64) int {
	for i, bound := range b.Monetary {
		if monetary >= bound {
			return 5 - i
		}
	}
	return 1
}
