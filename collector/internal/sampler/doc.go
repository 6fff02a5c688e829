// Package sampler keeps a short rolling history of metrics snapshots for
// dashboard charts: one sample per interval, newest 60 by default.
package sampler
