package metrics

import (
	"sync"
	"time"

	"github.com/sensorpulse/sensorpulse/pkg/types"
)

const (
	// DefaultCapacity bounds both the event and latency histories.
	DefaultCapacity = 1000

	// RecentWindow is the recency window used for throughput.
	RecentWindow = 60 * time.Second

	// LatencySampleWindow is how many of the newest latency samples feed
	// AvgLatency and P95Latency.
	LatencySampleWindow = 100

	// DefaultRecentLimit is used by RecentEvents when limit <= 0.
	DefaultRecentLimit = 100

	// DefaultSensorLimit is used by EventsBySensor when limit <= 0.
	DefaultSensorLimit = 50
)

// Collector is the bounded in-memory aggregation engine.
//
// All exported methods are safe for concurrent use.
type Collector struct {
	mu        sync.RWMutex
	capacity  int
	events    []types.ProcessedEvent // oldest first
	latencies []float64              // ms, oldest first; evicted independently of events

	// lifetimeFailed counts failures since construction or Reset. Eviction
	// does not decrement it.
	lifetimeFailed int

	startTime time.Time
	now       func() time.Time
}

// New returns a Collector whose histories hold at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Collector {
	return newCollector(capacity, time.Now)
}

func newCollector(capacity int, now func() time.Time) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{
		capacity:  capacity,
		events:    make([]types.ProcessedEvent, 0, capacity),
		latencies: make([]float64, 0, capacity),
		startTime: now(),
		now:       now,
	}
}

// Capacity returns the history bound this collector was built with.
func (c *Collector) Capacity() int {
	return c.capacity
}

// RecordEvent ingests ev. The stored copy is enriched with ProcessedAt and
// IngestLatency; ev itself is untouched. A false success increments the
// lifetime failure counter.
//
// The timestamp is not validated: future timestamps yield negative latency.
func (c *Collector) RecordEvent(ev types.SensorEvent, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	processedAt := c.now().UnixMilli()
	latency := processedAt - ev.Timestamp

	c.events = append(c.events, types.ProcessedEvent{
		SensorEvent:   ev,
		ProcessedAt:   processedAt,
		IngestLatency: latency,
	})
	c.latencies = append(c.latencies, float64(latency))

	if !success {
		c.lifetimeFailed++
	}

	if over := len(c.events) - c.capacity; over > 0 {
		c.events = c.events[over:]
	}
	if over := len(c.latencies) - c.capacity; over > 0 {
		c.latencies = c.latencies[over:]
	}
}

// Reset clears both histories and the failure counter and starts a new session.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = make([]types.ProcessedEvent, 0, c.capacity)
	c.latencies = make([]float64, 0, c.capacity)
	c.lifetimeFailed = 0
	c.startTime = c.now()
}

// RecentEvents returns up to limit of the newest retained events, newest first.
// limit <= 0 means DefaultRecentLimit.
func (c *Collector) RecentEvents(limit int) []types.ProcessedEvent {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return newestFirst(c.events, limit)
}

// EventsBySensor returns up to limit of the newest retained events whose
// SensorType equals sensorType, newest first. The filter runs over the full
// retained history, not the recency window. limit <= 0 means
// DefaultSensorLimit.
func (c *Collector) EventsBySensor(sensorType types.SensorType, limit int) []types.ProcessedEvent {
	if limit <= 0 {
		limit = DefaultSensorLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.ProcessedEvent, 0, min(limit, len(c.events)))
	for i := len(c.events) - 1; i >= 0 && len(out) < limit; i-- {
		if c.events[i].SensorType == sensorType {
			out = append(out, c.events[i])
		}
	}
	return out
}

// CountBySensor returns how many retained events exist per sensor type.
// Every known type is present in the result, with zero if absent.
func (c *Collector) CountBySensor() map[types.SensorType]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[types.SensorType]int, len(types.SensorTypes))
	for _, t := range types.SensorTypes {
		out[t] = 0
	}
	for _, e := range c.events {
		out[e.SensorType]++
	}
	return out
}

// newestFirst copies the last limit entries of events in reverse order.
func newestFirst(events []types.ProcessedEvent, limit int) []types.ProcessedEvent {
	n := min(limit, len(events))
	out := make([]types.ProcessedEvent, n)
	for i := 0; i < n; i++ {
		out[i] = events[len(events)-1-i]
	}
	return out
}

// recentLatencies returns the newest LatencySampleWindow samples (or all of
// them if fewer exist). The result aliases c.latencies; callers must hold the
// lock and must not modify it.
func (c *Collector) recentLatencies() []float64 {
	if len(c.latencies) <= LatencySampleWindow {
		return c.latencies
	}
	return c.latencies[len(c.latencies)-LatencySampleWindow:]
}
