package alerts

import (
	"fmt"

	"github.com/sensorpulse/sensorpulse/collector/internal/config"
	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
)

// Rule names. Each is also the deduplication key for its alert.
const (
	RuleLatencyCritical      = "latency_p95_critical"
	RuleLatencyWarning       = "latency_p95_warning"
	RuleAvailabilityCritical = "availability_critical"
	RuleAvailabilityWarning  = "availability_warning"
	RuleHighThroughput       = "high_throughput"
)

// rule is one fixed check. check returns whether it fires, the observed value
// and the threshold it was compared with.
type rule struct {
	name     string
	severity string
	check    func(metrics.Snapshot, metrics.SystemHealth, config.AlertsConfig) (bool, float64, float64)
	format   string // Sprintf with (value, threshold)
}

func (r rule) message(value, threshold float64) string {
	return fmt.Sprintf(r.format, value, threshold)
}

// ruleSet is evaluated in order. The warning tier of each metric only fires
// while the critical tier does not, so one metric never has two alerts.
var ruleSet = []rule{
	{
		name:     RuleLatencyCritical,
		severity: SeverityCritical,
		check: func(s metrics.Snapshot, _ metrics.SystemHealth, c config.AlertsConfig) (bool, float64, float64) {
			return s.P95Latency > c.LatencyCriticalMs, s.P95Latency, c.LatencyCriticalMs
		},
		format: "P95 latency %.0fms exceeds %.0fms",
	},
	{
		name:     RuleLatencyWarning,
		severity: SeverityWarning,
		check: func(s metrics.Snapshot, _ metrics.SystemHealth, c config.AlertsConfig) (bool, float64, float64) {
			fires := s.P95Latency > c.LatencyWarningMs && s.P95Latency <= c.LatencyCriticalMs
			return fires, s.P95Latency, c.LatencyWarningMs
		},
		format: "P95 latency %.0fms exceeds %.0fms",
	},
	{
		name:     RuleAvailabilityCritical,
		severity: SeverityCritical,
		check: func(_ metrics.Snapshot, h metrics.SystemHealth, c config.AlertsConfig) (bool, float64, float64) {
			return h.Availability < c.AvailabilityCriticalPct, h.Availability, c.AvailabilityCriticalPct
		},
		format: "availability %.2f%% below %.2f%%",
	},
	{
		name:     RuleAvailabilityWarning,
		severity: SeverityWarning,
		check: func(_ metrics.Snapshot, h metrics.SystemHealth, c config.AlertsConfig) (bool, float64, float64) {
			fires := h.Availability < c.AvailabilityWarningPct && h.Availability >= c.AvailabilityCriticalPct
			return fires, h.Availability, c.AvailabilityWarningPct
		},
		format: "availability %.2f%% below %.2f%%",
	},
	{
		name:     RuleHighThroughput,
		severity: SeverityInfo,
		check: func(s metrics.Snapshot, _ metrics.SystemHealth, c config.AlertsConfig) (bool, float64, float64) {
			return s.Throughput > c.ThroughputInfo, s.Throughput, c.ThroughputInfo
		},
		format: "throughput %.1f events/s above %.1f",
	},
}
