package exporter

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
	"github.com/sensorpulse/sensorpulse/pkg/types"
)

const namespace = "sensorpulse_"

// Source is the read side of the collector. *metrics.Collector satisfies it.
type Source interface {
	Snapshot() metrics.Snapshot
	SystemHealth() metrics.SystemHealth
	CountBySensor() map[types.SensorType]int
	Capacity() int
}

var statuses = []metrics.HealthStatus{
	metrics.StatusHealthy,
	metrics.StatusDegraded,
	metrics.StatusCritical,
}

// Handler serves the current collector state in the Prometheus text
// exposition format. Every scrape computes fresh values.
func Handler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}

		enc := expfmt.NewEncoder(w, format)
		for _, mf := range Families(src) {
			if err := enc.Encode(mf); err != nil {
				slog.Error("exporter: encode metric family", "name", mf.GetName(), "err", err)
				return
			}
		}
	})
}

// Families builds the metric families for one scrape.
func Families(src Source) []*dto.MetricFamily {
	snap := src.Snapshot()
	health := src.SystemHealth()
	counts := src.CountBySensor()

	out := []*dto.MetricFamily{
		gauge("events_received", "Events currently retained by the collector.", float64(snap.EventsReceived)),
		gauge("events_processed", "Retained events minus lifetime failures; may be negative.", float64(snap.EventsProcessed)),
		counter("events_failed_total", "Failed events since the session started.", float64(snap.EventsFailed)),
		gauge("latency_avg_ms", "Mean ingest latency over the newest 100 samples.", snap.AvgLatency),
		gauge("latency_p95_ms", "95th percentile ingest latency over the newest 100 samples.", snap.P95Latency),
		gauge("throughput_eps", "Events per second over the last 60 seconds.", snap.Throughput),
		gauge("availability_pct", "Share of retained events that did not fail, in percent.", health.Availability),
		gauge("error_rate_pct", "Lifetime failures over retained events, in percent.", health.ErrorRate),
		gauge("uptime_seconds", "Seconds since the session started.", float64(health.UptimeMs)/1000),
		gauge("history_capacity", "Maximum number of events the collector retains.", float64(src.Capacity())),
	}

	status := family("health_status", "1 for the current health status, 0 otherwise.", dto.MetricType_GAUGE)
	for _, s := range statuses {
		v := 0.0
		if s == health.Status {
			v = 1
		}
		status.Metric = append(status.Metric, &dto.Metric{
			Label: []*dto.LabelPair{label("status", string(s))},
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		})
	}
	out = append(out, status)

	retained := family("retained_events", "Retained events per sensor type.", dto.MetricType_GAUGE)
	for _, st := range types.SensorTypes {
		retained.Metric = append(retained.Metric, &dto.Metric{
			Label: []*dto.LabelPair{label("sensor_type", string(st))},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(counts[st]))},
		})
	}
	out = append(out, retained)

	return out
}

func family(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	mf := family(name, help, dto.MetricType_GAUGE)
	mf.Metric = []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}}
	return mf
}

func counter(name, help string, v float64) *dto.MetricFamily {
	mf := family(name, help, dto.MetricType_COUNTER)
	mf.Metric = []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}}
	return mf
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
