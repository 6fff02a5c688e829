// Package simulator generates synthetic sensor readings.
//
// A Simulator draws a random device (device-001 … device-NNN), a random sensor
// type and a value within that type's physical range, rounded to two decimals.
// Each reading is paired with a success flag drawn against FailureRate and
// delivered to a Sink, normally the metrics Collector.
//
// Start runs a steady ticker loop; Burst schedules a batch of one-shot timers
// spread over one second. Stop ends both.
package simulator
