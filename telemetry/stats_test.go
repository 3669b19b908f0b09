package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeFitnessStats(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	mean, std, lo, p10, p50, p90, hi := ComputeFitnessStats(values)

	tests := []struct {
		name      string
		got, want float64
	}{
		{"mean", mean, 5.5},
		{"std", std, math.Sqrt(8.25)}, // population std
		{"min", lo, 1},
		{"p10", p10, 1.9},
		{"p50", p50, 5.5},
		{"p90", p90, 9.1},
		{"max", hi, 10},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 0.001 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestComputeFitnessStatsDoesNotSortInput(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeFitnessStats(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input reordered: %v", values)
	}
}

func TestComputeFitnessStatsEmpty(t *testing.T) {
	mean, std, lo, p10, p50, p90, hi := ComputeFitnessStats(nil)
	for _, v := range []float64{mean, std, lo, p10, p50, p90, hi} {
		if v != 0 {
			t.Fatal("empty slice should return all zeros")
		}
	}
}
