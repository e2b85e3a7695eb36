// Package prep cleans raw retail invoice rows before rule mining.
package prep

import (
	"math"
	"sort"
)

// Default quantiles and fence multiplier used for outlier clipping.
const (
	DefaultLowQuantile  = 0.01
	DefaultHighQuantile = 0.99
	DefaultIQRFactor    = 1.5
)

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks, h = (n-1)·q. It returns NaN for an empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	q = math.Max(0, math.Min(1, q))
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// OutlierThresholds returns the fences lowQ − factor·IQR and highQ + factor·IQR,
// where IQR is the distance between the lowQ and highQ quantiles.
func OutlierThresholds(values []float64, lowQ, highQ, factor float64) (low, high float64) {
	if len(values) == 0 {
		return math.Inf(-1), math.Inf(1)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantileSorted(sorted, lowQ)
	q3 := quantileSorted(sorted, highQ)
	iqr := q3 - q1
	return q1 - factor*iqr, q3 + factor*iqr
}

// ReplaceWithThresholds clips every value into [low, high] in place and
// returns how many values were changed.
func ReplaceWithThresholds(values []float64, low, high float64) int {
	clipped := 0
	for i, v := range values {
		switch {
		case v < low:
			values[i] = low
			clipped++
		case v > high:
			values[i] = high
			clipped++
		}
	}
	return clipped
}
