package api

import (
	"github.com/sensorpulse/sensorpulse/collector/internal/alerts"
	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
	"github.com/sensorpulse/sensorpulse/pkg/types"
)

// SensorSummary is one entry in GET /api/v1/sensors.
type SensorSummary struct {
	SensorType types.SensorType `json:"sensor_type"`

	// Latest is the newest reading of this type among the most recent
	// events, or null if none of them match.
	Latest *types.ProcessedEvent `json:"latest"`

	// Retained is how many events of this type the collector currently holds.
	Retained int `json:"retained"`
}

// HistoryResponse is the payload for GET /api/v1/metrics/history.
type HistoryResponse struct {
	// Size is how many samples are retained at most.
	Size    int                `json:"size"`
	Samples []metrics.Snapshot `json:"samples"`
}

// AlertsResponse is the payload for GET /api/v1/alerts.
type AlertsResponse struct {
	Active  []alerts.Alert `json:"active"`
	History []alerts.Alert `json:"history"`
}

// BurstResponse is the payload for POST /api/v1/simulator/burst.
type BurstResponse struct {
	Scheduled int `json:"scheduled"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
