package valuation

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean of xs. Callers guarantee len(xs) > 0.
func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdev returns the sample standard deviation (n-1 divisor).
// A single-sample series has stdev 0 by contract, never NaN.
func sampleStdev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mu := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// median returns the median of xs; even-length series average the two
// middle values.
func median(xs []float64) float64 {
	n := len(xs)
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentileOfScore ranks score against pool as the mean of the strict
// and weak percentile definitions: 50*(below + belowOrEqual)/n. The pool
// includes the scored player.
func percentileOfScore(pool []float64, score float64) float64 {
	n := len(pool)
	if n == 0 {
		return 0
	}
	below, belowOrEqual := 0, 0
	for _, x := range pool {
		if x < score {
			below++
		}
		if x <= score {
			belowOrEqual++
		}
	}
	return 50 * float64(below+belowOrEqual) / float64(n)
}

// clamp bounds x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

// round2 rounds to 2 decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
