// Package alerts turns sampled metrics into dashboard alerts.
//
// The rule set is fixed; only thresholds come from config:
//
//	latency_p95_critical   P95 latency  > latency_critical_ms        critical
//	latency_p95_warning    P95 latency  > latency_warning_ms         warning
//	availability_critical  availability < availability_critical_pct  critical
//	availability_warning   availability < availability_warning_pct   warning
//	high_throughput        throughput   > throughput_info            info
//
// An alert fires once and stays active while its condition holds; it resolves
// the first time the condition is false. After firing, a rule is muted for
// the configured cooldown. Fired and resolved transitions are posted to the
// configured webhooks (slack, teams or plain http JSON).
package alerts
