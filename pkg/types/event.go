package types

// SensorType is the kind of sensor that produced a reading.
type SensorType string

const (
	SensorTemperature   SensorType = "temperature"
	SensorAccelerometer SensorType = "accelerometer"
	SensorPressure      SensorType = "pressure"
	SensorHumidity      SensorType = "humidity"
)

// SensorTypes is the ordered set of sensor types the system knows about.
var SensorTypes = []SensorType{
	SensorTemperature,
	SensorAccelerometer,
	SensorPressure,
	SensorHumidity,
}

// ParseSensorType returns the SensorType named by s and whether it is known.
func ParseSensorType(s string) (SensorType, bool) {
	for _, t := range SensorTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// SensorEvent is a single raw reading as created by a producer.
//
// Timestamp is epoch milliseconds assigned by the producer. It is not
// guaranteed to be strictly increasing across events.
type SensorEvent struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"device_id"`
	SensorType SensorType `json:"sensor_type"`
	Value      float64    `json:"value"`
	Timestamp  int64      `json:"timestamp"`
}

// ProcessedEvent is a SensorEvent after ingestion by the collector.
// Only the collector constructs one; a raw SensorEvent never carries
// enrichment fields.
type ProcessedEvent struct {
	SensorEvent

	// ProcessedAt is the epoch-millisecond time the collector observed the event.
	ProcessedAt int64 `json:"processed_at"`

	// IngestLatency is ProcessedAt - Timestamp in milliseconds. Negative when
	// the producer clock runs ahead; never clamped.
	IngestLatency int64 `json:"ingest_latency"`
}
