package dataset

import "math"

// Diff returns first differences; the first element is NaN.
func Diff(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

// PctChange returns the fractional change between consecutive values; the
// first element is NaN, as is any element following a zero or missing value.
func PctChange(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 || math.IsNaN(prev) {
			continue
		}
		out[i] = values[i]/prev - 1
	}
	return out
}

// Lag shifts values forward by k rows, filling the head with NaN.
func Lag(values []float64, k int) []float64 {
	out := nanSlice(len(values))
	for i := k; i < len(values); i++ {
		out[i] = values[i-k]
	}
	return out
}

// Scale multiplies every value by factor, preserving NaN.
func Scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}

// Sub returns the element-wise difference a - b.
func Sub(a, b []float64) []float64 {
	out := nanSlice(len(a))
	for i := range a {
		if i < len(b) {
			out[i] = a[i] - b[i]
		}
	}
	return out
}

// CumCompound returns the running compounded return, treating NaN as zero.
// cum[i] = prod(1+values[j], j<=i) - 1.
func CumCompound(values []float64) []float64 {
	out := make([]float64, len(values))
	factor := 1.0
	for i, v := range values {
		if !math.IsNaN(v) {
			factor *= 1 + v
		}
		out[i] = factor - 1
	}
	return out
}
