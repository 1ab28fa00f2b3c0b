package core

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks (Hyndman-Fan type 7, the default of most dataframe
// libraries). values need not be sorted. Returns NaN for an empty slice.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Median returns the median of values, or NaN for an empty slice.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// IQRFence returns the [Q1 - k*IQR, Q3 + k*IQR] range of values.
// ok is false when values is empty.
func IQRFence(values []float64, k float64) (fence Bounds, ok bool) {
	if len(values) == 0 {
		return Bounds{}, false
	}
	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr := q3 - q1
	return Bounds{Min: q1 - k*iqr, Max: q3 + k*iqr}, true
}

// numericValues returns the parseable non-null values of column idx.
func numericValues(t *Table, idx int) []float64 {
	values := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := ParseCell(row[idx]); ok {
			values = append(values, f)
		}
	}
	return values
}
