package rfm

import (
	"testing"
)

func TestRecencyScore(t *testing.T) {
	bands := DefaultBands()

	tests := []struct {
		days int64
		want int
	}{
		{0, 5},
		{30, 5}, // boundary belongs to the higher band
		{31, 4},
		{90, 4},
		{91, 3},
		{150, 3},
		{151, 2},
		{210, 2},
		{211, 1},
		{10000, 1},
	}

	for _, tt := range tests {
		if got := bands.RecencyScore(tt.days); got != tt.want {
			t.Errorf("RecencyScore(%d) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func TestFrequencyScore(t *testing.T) {
	bands := DefaultBands()

	tests := []struct {
		count int64
		want  int
	}{
		{1, 1},
		{49, 1},
		{50, 2},
		{199, 2},
		{200, 3},
		{499, 3},
		{500, 4},
		{999, 4},
		{1000, 5}, // boundary belongs to the higher band
		{5000, 5},
	}

	for _, tt := range tests {
		if got := bands.FrequencyScore(tt.count); got != tt.want {
			t.Errorf("FrequencyScore(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestMonetaryScore(t *testing.T) {
	bands := DefaultBands()

	tests := []struct {
		spend float64
		want  int
	}{
		{0, 1},
		{9999.99, 1},
		{10000, 2},
		{24999.99, 2},
		{25000, 3},
		{49999.99, 3},
		{50000, 4},
		{99999.99, 4},
		{100000, 5}, // boundary belongs to the higher band
		{1e9, 5},
	}

	for _, tt := range tests {
		if got := bands.MonetaryScore(tt.spend); got != tt.want {
			t.Errorf("MonetaryScore(%v) = %d, want %d", tt.spend, got, tt.want)
		}
	}
}

func TestBandsValidate(t *testing.T) {
	if err := DefaultBands().Validate(); err != nil {
		t.Fatalf("default bands should validate: %v", err)
	}

	bad := DefaultBands()
	bad.RecencyDays = [4]int64{30, 30, 150, 210}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for non-increasing recency thresholds")
	}

	bad = DefaultBands()
	bad.Frequency = [4]int64{1000, 1200, 200, 50}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for non-decreasing frequency thresholds")
	}

	bad = DefaultBands()
	bad.Monetary = [4]float64{100000, 50000, 50000, 10000}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for non-decreasing monetary thresholds")
	}
}

func TestSegmentFor(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{15, "Premium"},
		{11, "Premium"}, // boundary
		{10, "Loyal"},
		{9, "Loyal"}, // boundary
		{8, "Potential"},
		{6, "Potential"}, // boundary
		{5, "At Risk"},
		{3, "At Risk"},
	}

	for _, tt := range tests {
		if got := SegmentFor(tt.total); string(got) != tt.want {
			t.Errorf("SegmentFor(%d) = %q, want %q", tt.total, got, tt.want)
		}
	}
}
