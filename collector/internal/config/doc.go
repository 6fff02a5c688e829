// Package config loads the collector configuration from a YAML file.
//
// Sections:
//   - collector: history_size (default 1000)
//   - simulator: device_count, events_per_second, burst_size, failure_rate,
//     autostart and the API limits max_events_per_second, max_burst_size
//   - server: http_port, grpc_port and the broadcast/sample/health loop intervals
//   - alerts: fixed latency/availability/throughput thresholds, cooldown,
//     max_history and webhook targets (URLs resolved from env)
//
// Load(path) applies defaults before unmarshalling, then validates. Watch
// re-runs Load on every write and hands the result to a callback.
package config
