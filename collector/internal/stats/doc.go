// Package stats holds the pure numeric routines used by the metrics collector.
//
// Every function is total: empty input yields 0 rather than NaN or a panic.
//
//   - Average(values)          arithmetic mean
//   - Percentile(values, p)    nearest-rank percentile, index ceil(n*p)-1
//   - RatePerSecond(n, window) count divided by window seconds
//   - Round / RoundTo / Percent display rounding, halves toward +Inf
package stats
