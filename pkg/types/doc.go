// Package types defines the sensor event shapes shared by the producer, the
// collector and every read surface. These are the canonical in-memory
// representations; JSON tags match what dashboards consume.
package types
