package metrics

import (
	"github.com/sensorpulse/sensorpulse/collector/internal/stats"
)

// HealthStatus is the coarse classification returned by SystemHealth.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusCritical HealthStatus = "critical"
)

// Availability thresholds, compared against the unrounded 0–1 ratio.
const (
	ThresholdHealthy  = 0.99
	ThresholdDegraded = 0.95
)

// latencyPercentile is the rank reported as P95Latency.
const latencyPercentile = 0.95

// Snapshot is a point-in-time view of the collector. It is a plain value and
// shares no memory with collector state.
type Snapshot struct {
	// Timestamp is the computation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// EventsReceived is the number of currently retained events, not a
	// lifetime total.
	EventsReceived int `json:"events_received"`

	// EventsProcessed is EventsReceived - EventsFailed. Because EventsFailed
	// is a lifetime counter this can drop below zero after heavy eviction.
	EventsProcessed int `json:"events_processed"`

	// EventsFailed is the lifetime failure count since the session started.
	EventsFailed int `json:"events_failed"`

	AvgLatency float64 `json:"avg_latency"` // ms, rounded to integer
	P95Latency float64 `json:"p95_latency"` // ms, rounded to integer
	Throughput float64 `json:"throughput"`  // events/s over RecentWindow, one decimal
}

// SystemHealth is the availability classification of the current session.
type SystemHealth struct {
	Status       HealthStatus `json:"status"`
	UptimeMs     int64        `json:"uptime"`
	Availability float64      `json:"availability"` // percent, two decimals
	ErrorRate    float64      `json:"error_rate"`   // percent, two decimals
}

// Snapshot computes the current metrics.
//
// Counts come from the full retained history, throughput from events whose
// timestamp is within RecentWindow of now, and latency from the newest
// LatencySampleWindow samples.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now().UnixMilli()
	windowMs := RecentWindow.Milliseconds()

	var recent int
	for _, e := range c.events {
		if now-e.Timestamp < windowMs {
			recent++
		}
	}

	lat := c.recentLatencies()
	received := len(c.events)

	return Snapshot{
		Timestamp:       now,
		EventsReceived:  received,
		EventsProcessed: received - c.lifetimeFailed,
		EventsFailed:    c.lifetimeFailed,
		AvgLatency:      stats.Round(stats.Average(lat)),
		P95Latency:      stats.Round(stats.Percentile(lat, latencyPercentile)),
		Throughput:      stats.RoundTo(stats.RatePerSecond(recent, RecentWindow), 1),
	}
}

// SystemHealth classifies the session by availability.
//
// errorRate = lifetime failures / retained events. The numerator never decays
// while the denominator is capped at capacity, so a long-lived session with
// early failures keeps reporting them until Reset.
func (c *Collector) SystemHealth() SystemHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errorRate float64
	if n := len(c.events); n > 0 {
		errorRate = float64(c.lifetimeFailed) / float64(n)
	}
	availability := 1 - errorRate

	return SystemHealth{
		Status:       statusFromAvailability(availability),
		UptimeMs:     c.now().Sub(c.startTime).Milliseconds(),
		Availability: stats.Percent(availability),
		ErrorRate:    stats.Percent(errorRate),
	}
}

// statusFromAvailability maps a 0–1 availability ratio to a HealthStatus.
func statusFromAvailability(a float64) HealthStatus {
	switch {
	case a >= ThresholdHealthy:
		return StatusHealthy
	case a >= ThresholdDegraded:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
