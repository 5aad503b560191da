package phase

import (
	"math"
	"testing"
)

func TestSlope(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		expected float64
	}{
		{
			name:     "Flat series has zero slope",
			values:   []float64{100, 100, 100, 100, 100, 100},
			window:   5,
			expected: 0,
		},
		{
			name:     "Linear increase recovers the increment",
			values:   []float64{100, 100.5, 101, 101.5, 102, 102.5},
			window:   5,
			expected: 0.5,
		},
		{
			name:     "Linear decrease recovers the negative increment",
			values:   []float64{102, 101.5, 101, 100.5, 100},
			window:   5,
			expected: -0.5,
		},
		{
			name:     "Fewer than two valid points fails closed",
			values:   []float64{100},
			window:   5,
			expected: 0,
		},
		{
			name:     "Empty series fails closed",
			values:   nil,
			window:   5,
			expected: 0,
		},
		{
			name:     "All NaN fails closed",
			values:   []float64{math.NaN(), math.NaN(), math.NaN()},
			window:   5,
			expected: 0,
		},
		{
			name:     "NaN points are skipped, not propagated",
			values:   []float64{100, math.NaN(), 101, math.NaN(), 102},
			window:   5,
			expected: 1,
		},
		{
			name:     "Window below two fails closed",
			values:   []float64{100, 101, 102},
			window:   1,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slope(tt.values, tt.window)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Slope() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSlopeStableAcrossOverlappingWindows(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 100 + 0.5*float64(i)
	}

	first := Slope(series[:20], 5)
	second := Slope(series[:25], 5)
	third := Slope(series, 5)

	if first <= 0 {
		t.Fatalf("expected positive slope for increasing series, got %v", first)
	}
	if math.Abs(first-second) > 1e-9 || math.Abs(second-third) > 1e-9 {
		t.Errorf("slope drifts across overlapping windows: %v, %v, %v", first, second, third)
	}
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		window   int
		expected float64
	}{
		{
			name:     "Flat closes give zero momentum",
			closes:   []float64{100, 100, 100, 100, 100, 100},
			window:   5,
			expected: 0,
		},
		{
			name:     "Constant increment recovers the increment",
			closes:   []float64{100, 100.5, 101, 101.5, 102, 102.5},
			window:   5,
			expected: 0.5,
		},
		{
			name:     "Uses available differences when short of the window",
			closes:   []float64{100, 101},
			window:   5,
			expected: 1,
		},
		{
			name:     "Empty series fails closed",
			closes:   nil,
			window:   5,
			expected: 0,
		},
		{
			name:     "Single close fails closed",
			closes:   []float64{100},
			window:   5,
			expected: 0,
		},
		{
			name:     "NaN pairs are skipped",
			closes:   []float64{100, math.NaN(), 101, 101.5},
			window:   5,
			expected: 0.5,
		},
		{
			name:     "All NaN fails closed",
			closes:   []float64{math.NaN(), math.NaN(), math.NaN()},
			window:   5,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Momentum(tt.closes, tt.window)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Momentum() = %v, want %v", got, tt.expected)
			}
		})
	}
}
