package core

import (
	"math"
	"testing"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{name: "single value", values: []float64{7}, q: 0.25, want: 7},
		{name: "median odd", values: []float64{3, 1, 2}, q: 0.5, want: 2},
		{name: "median even", values: []float64{4, 1, 3, 2}, q: 0.5, want: 2.5},
		{name: "q1 interpolated", values: []float64{10, 11, 12, 13, 14, 1000}, q: 0.25, want: 11.25},
		{name: "q3 interpolated", values: []float64{10, 11, 12, 13, 14, 1000}, q: 0.75, want: 13.75},
		{name: "min", values: []float64{5, 9, 1}, q: 0, want: 1},
		{name: "max", values: []float64{5, 9, 1}, q: 1, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantile(tt.values, tt.q)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.values, tt.q, got, tt.want)
			}
		})
	}
}

func TestQuantile_DoesNotSortInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Quantile(values, 0.5)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input reordered to %v", values)
	}
}

func TestQuantile_Empty(t *testing.T) {
	if got := Median(nil); !math.IsNaN(got) {
		t.Errorf("Median(nil) = %v, want NaN", got)
	}
}

func TestIQRFence(t *testing.T) {
	fence, ok := IQRFence([]float64{10, 11, 12, 13, 14, 1000}, 1.5)
	if !ok {
		t.Fatal("IQRFence() ok = false, want true")
	}
	// Q1 = 11.25, Q3 = 13.75, IQR = 2.5
	if fence.Min != 7.5 || fence.Max != 17.5 {
		t.Errorf("IQRFence() = [%v, %v], want [7.5, 17.5]", fence.Min, fence.Max)
	}
	if fence.Contains(1000) {
		t.Error("fence contains 1000, want excluded")
	}

	if _, ok := IQRFence(nil, 1.5); ok {
		t.Error("IQRFence(nil) ok = true, want false")
	}
}
