// Package metrics is the aggregation engine at the centre of sensorpulse.
//
// Collector ingests (event, success) pairs from a producer and keeps two
// parallel FIFO histories, one of enriched events and one of ingest latency
// samples, each bounded to the configured capacity (default 1000). Queries
// compute fresh values from that state on every call:
//
//   - Snapshot()            counts, avg/p95 latency, throughput
//   - SystemHealth()        availability, error rate, healthy/degraded/critical
//   - RecentEvents(n)       last n retained events, newest first
//   - EventsBySensor(t, n)  last n retained events of type t, newest first
//   - Reset()               start a new session
//
// Three distinct windows feed Snapshot and they are not meant to agree:
// event counts use the full retained history, throughput uses a 60 s recency
// window over retained events, and latency uses the newest 100 samples.
//
// The failure counter is a lifetime counter: it is not bounded by the history
// capacity and only Reset clears it. Received/processed counts shrink as old
// events are evicted, the failure count does not.
//
// All exported methods are safe for concurrent use. The clock is injectable so
// tests can pin "now" without sleeping.
package metrics
