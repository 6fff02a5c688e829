package healthcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
)

// Service is the gRPC service name reported alongside the server-wide "" entry.
const Service = "sensorpulse.Collector"

// Source yields the current health. *metrics.Collector satisfies it.
type Source interface {
	SystemHealth() metrics.SystemHealth
}

// Reporter mirrors the collector's health status into a grpc health server.
type Reporter struct {
	src      Source
	srv      *health.Server
	interval time.Duration

	mu   sync.Mutex
	last metrics.HealthStatus
}

// New returns a Reporter publishing into a fresh health server. Both services
// start as SERVING, which is what an empty collector reports.
func New(src Source, interval time.Duration) *Reporter {
	r := &Reporter{
		src:      src,
		srv:      health.NewServer(),
		interval: interval,
		last:     metrics.StatusHealthy,
	}
	r.set(healthpb.HealthCheckResponse_SERVING)
	return r
}

// Server returns the health server to register with grpc.
func (r *Reporter) Server() *health.Server { return r.srv }

// Update reads the collector once and publishes the mapped status.
func (r *Reporter) Update() {
	h := r.src.SystemHealth()
	r.set(servingStatus(h.Status))

	r.mu.Lock()
	prev := r.last
	r.last = h.Status
	r.mu.Unlock()

	if prev != h.Status {
		slog.Info("healthcheck: status changed",
			"from", prev, "to", h.Status, "availability", h.Availability)
	}
}

// Run updates every interval until ctx is cancelled, then marks all services
// NOT_SERVING so clients drain before GracefulStop.
func (r *Reporter) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.Update()
	for {
		select {
		case <-ctx.Done():
			r.srv.Shutdown()
			return
		case <-t.C:
			r.Update()
		}
	}
}

func (r *Reporter) set(s healthpb.HealthCheckResponse_ServingStatus) {
	r.srv.SetServingStatus("", s)
	r.srv.SetServingStatus(Service, s)
}

// servingStatus maps collector health onto the grpc health protocol. A
// degraded collector still accepts work.
func servingStatus(s metrics.HealthStatus) healthpb.HealthCheckResponse_ServingStatus {
	switch s {
	case metrics.StatusHealthy, metrics.StatusDegraded:
		return healthpb.HealthCheckResponse_SERVING
	default:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
}
