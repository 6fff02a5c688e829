package stats

import (
	"math"
	"sort"
	"time"
)

// Average returns the arithmetic mean of values, or 0 for an empty slice.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile returns the nearest-rank percentile of values for p in (0, 1].
//
// A sorted copy is taken; values itself is not reordered. The selected index
// is ceil(len*p)-1, so p = 1 selects the maximum and p = 0.5 on four values
// selects the second smallest. Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// RatePerSecond returns count spread over window, in events per second.
// A non-positive window yields 0.
func RatePerSecond(count int, window time.Duration) float64 {
	secs := window.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(count) / secs
}

// Round rounds v to the nearest integer with halves going toward +Inf
// (2.5 → 3, -2.5 → -2). math.Round would give -3 for the latter.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// RoundTo rounds v to the given number of decimal places using Round.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return Round(v*scale) / scale
}

// Percent converts a 0–1 ratio to a percentage with two decimals, so 0.995
// becomes 99.5 rather than 99.50000000000001.
func Percent(ratio float64) float64 {
	return Round(ratio*10000) / 100
}
