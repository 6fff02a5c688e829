package exporter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
	"github.com/sensorpulse/sensorpulse/pkg/types"
)

// stubSource returns fixed values.
type stubSource struct {
	snap     metrics.Snapshot
	health   metrics.SystemHealth
	counts   map[types.SensorType]int
	capacity int
}

func (s stubSource) Snapshot() metrics.Snapshot              { return s.snap }
func (s stubSource) SystemHealth() metrics.SystemHealth      { return s.health }
func (s stubSource) CountBySensor() map[types.SensorType]int { return s.counts }
func (s stubSource) Capacity() int                           { return s.capacity }

func testSource() stubSource {
	return stubSource{
		snap: metrics.Snapshot{
			EventsReceived:  40,
			EventsProcessed: 38,
			EventsFailed:    2,
			AvgLatency:      12,
			P95Latency:      31,
			Throughput:      0.7,
		},
		health: metrics.SystemHealth{
			Status:       metrics.StatusDegraded,
			UptimeMs:     90_500,
			Availability: 95,
			ErrorRate:    5,
		},
		counts: map[types.SensorType]int{
			types.SensorTemperature: 25,
			types.SensorHumidity:    15,
		},
		capacity: 1000,
	}
}

func scrape(t *testing.T, src Source) map[string]*dto.MetricFamily {
	t.Helper()
	rr := httptest.NewRecorder()
	Handler(src).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q", ct)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return mfs
}

// value returns the single sample of a one-metric family.
func value(t *testing.T, mfs map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf, ok := mfs[name]
	if !ok {
		t.Fatalf("family %s missing", name)
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("family %s: got %d metrics, want 1", name, len(mf.GetMetric()))
	}
	m := mf.GetMetric()[0]
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.GetGauge().GetValue()
}

// labelled returns the sample whose label key has value v.
func labelled(t *testing.T, mfs map[string]*dto.MetricFamily, name, key, v string) float64 {
	t.Helper()
	for _, m := range mfs[name].GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == key && lp.GetValue() == v {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("%s{%s=%q} missing", name, key, v)
	return 0
}

func TestHandler_Values(t *testing.T) {
	mfs := scrape(t, testSource())

	tests := []struct {
		name string
		want float64
	}{
		{"sensorpulse_events_received", 40},
		{"sensorpulse_events_processed", 38},
		{"sensorpulse_events_failed_total", 2},
		{"sensorpulse_latency_avg_ms", 12},
		{"sensorpulse_latency_p95_ms", 31},
		{"sensorpulse_throughput_eps", 0.7},
		{"sensorpulse_availability_pct", 95},
		{"sensorpulse_error_rate_pct", 5},
		{"sensorpulse_uptime_seconds", 90.5},
		{"sensorpulse_history_capacity", 1000},
	}
	for _, tc := range tests {
		if got := value(t, mfs, tc.name); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}

	if typ := mfs["sensorpulse_events_failed_total"].GetType(); typ != dto.MetricType_COUNTER {
		t.Errorf("events_failed_total type: got %v, want COUNTER", typ)
	}
	if typ := mfs["sensorpulse_events_received"].GetType(); typ != dto.MetricType_GAUGE {
		t.Errorf("events_received type: got %v, want GAUGE", typ)
	}
}

func TestHandler_HealthStatus(t *testing.T) {
	mfs := scrape(t, testSource())

	want := map[string]float64{"healthy": 0, "degraded": 1, "critical": 0}
	for status, v := range want {
		if got := labelled(t, mfs, "sensorpulse_health_status", "status", status); got != v {
			t.Errorf("health_status{status=%q}: got %v, want %v", status, got, v)
		}
	}
}

func TestHandler_RetainedPerSensor(t *testing.T) {
	mfs := scrape(t, testSource())

	want := map[types.SensorType]float64{
		types.SensorTemperature:   25,
		types.SensorAccelerometer: 0,
		types.SensorPressure:      0,
		types.SensorHumidity:      15,
	}
	for st, v := range want {
		if got := labelled(t, mfs, "sensorpulse_retained_events", "sensor_type", string(st)); got != v {
			t.Errorf("retained_events{sensor_type=%q}: got %v, want %v", st, got, v)
		}
	}
}

func TestHandler_NegativeProcessed(t *testing.T) {
	src := testSource()
	src.snap.EventsProcessed = -3
	if got := value(t, scrape(t, src), "sensorpulse_events_processed"); got != -3 {
		t.Errorf("events_processed: got %v, want -3", got)
	}
}

func TestHandler_WithCollector(t *testing.T) {
	c := metrics.New(10)
	mfs := scrape(t, c)
	if got := value(t, mfs, "sensorpulse_availability_pct"); got != 100 {
		t.Errorf("availability on empty collector: got %v, want 100", got)
	}
	if got := labelled(t, mfs, "sensorpulse_health_status", "status", "healthy"); got != 1 {
		t.Errorf("health_status{healthy}: got %v, want 1", got)
	}
	if got := value(t, mfs, "sensorpulse_history_capacity"); got != 10 {
		t.Errorf("history_capacity: got %v, want 10", got)
	}
}

func TestHandler_Methods(t *testing.T) {
	h := Handler(testSource())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: got %d, want 405", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/metrics", nil))
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("HEAD: got %d with %d body bytes, want 200 and empty", rr.Code, rr.Body.Len())
	}
}
