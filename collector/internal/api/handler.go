package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sensorpulse/sensorpulse/collector/internal/alerts"
	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
	"github.com/sensorpulse/sensorpulse/collector/internal/sampler"
	"github.com/sensorpulse/sensorpulse/collector/internal/simulator"
	"github.com/sensorpulse/sensorpulse/pkg/types"
)

// latestScanDepth is how many recent events the sensors overview looks through.
const latestScanDepth = 50

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	collector *metrics.Collector
	sampler   *sampler.Sampler
	alerts    *alerts.Engine
	sim       *simulator.Simulator
	mux       *http.ServeMux
}

// New creates a Handler and registers all routes. The simulator delivers into
// the same collector the handler reads from.
func New(c *metrics.Collector, s *sampler.Sampler, a *alerts.Engine, sim *simulator.Simulator) http.Handler {
	h := &Handler{collector: c, sampler: s, alerts: a, sim: sim, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/events", h.events)
	h.mux.HandleFunc("/api/v1/sensors", h.sensors)
	h.mux.HandleFunc("/api/v1/sensors/", h.sensorEvents) // subtree: {type}/events
	h.mux.HandleFunc("/api/v1/metrics/history", h.history)
	h.mux.HandleFunc("/api/v1/alerts", h.alertList)
	h.mux.HandleFunc("/api/v1/reset", h.reset)
	h.mux.HandleFunc("/api/v1/simulator", h.simulatorStatus)
	h.mux.HandleFunc("/api/v1/simulator/start", h.simulatorStart)
	h.mux.HandleFunc("/api/v1/simulator/stop", h.simulatorStop)
	h.mux.HandleFunc("/api/v1/simulator/burst", h.simulatorBurst)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- read routes ------------------------------------------------------------

// snapshot returns GET /api/v1/snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, h.collector.Snapshot())
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, h.collector.SystemHealth())
}

// events returns GET /api/v1/events?limit=N, newest first.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, h.collector.RecentEvents(limit))
}

// sensors returns GET /api/v1/sensors: one entry per sensor type with the
// newest-timestamped reading among the last 50 events and the retained count.
func (h *Handler) sensors(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	recent := h.collector.RecentEvents(latestScanDepth)
	counts := h.collector.CountBySensor()

	out := make([]SensorSummary, 0, len(types.SensorTypes))
	for _, st := range types.SensorTypes {
		s := SensorSummary{SensorType: st, Retained: counts[st]}
		// Producer timestamps can arrive out of order, so the newest reading
		// is the greatest timestamp, not the last one ingested.
		for i := range recent {
			if recent[i].SensorType != st {
				continue
			}
			if s.Latest == nil || recent[i].Timestamp > s.Latest.Timestamp {
				s.Latest = &recent[i]
			}
		}
		out = append(out, s)
	}
	jsonResp(w, http.StatusOK, out)
}

// sensorEvents returns GET /api/v1/sensors/{type}/events?limit=N.
func (h *Handler) sensorEvents(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/sensors/"), "/")
	if rest == "" {
		h.sensors(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "events" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if !allow(w, r, http.MethodGet) {
		return
	}

	st, ok := types.ParseSensorType(parts[0])
	if !ok {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("unknown sensor type %q", parts[0]))
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, h.collector.EventsBySensor(st, limit))
}

// history returns GET /api/v1/metrics/history, samples oldest first.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, HistoryResponse{
		Size:    h.sampler.Size(),
		Samples: h.sampler.History(),
	})
}

// alertList serves GET /api/v1/alerts and DELETE /api/v1/alerts. DELETE
// forgets every alert and cooldown.
func (h *Handler) alertList(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, AlertsResponse{
			Active:  h.alerts.Active(),
			History: h.alerts.History(),
		})
	case http.MethodDelete:
		h.alerts.Reset()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- control routes ---------------------------------------------------------

// reset handles POST /api/v1/reset: a new collector session and an empty
// sample history.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.collector.Reset()
	h.sampler.Reset()
	jsonResp(w, http.StatusOK, h.collector.SystemHealth())
}

// simulatorStatus returns GET /api/v1/simulator.
func (h *Handler) simulatorStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, h.sim.Status())
}

// simulatorStart handles POST /api/v1/simulator/start?rate=N. 409 if running.
func (h *Handler) simulatorStart(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	rate, err := queryInt(r, "rate")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit := h.sim.Status().MaxEventsPerSecond; rate > limit {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("rate %d exceeds the limit of %d", rate, limit))
		return
	}
	if !h.sim.Start(h.collector, rate) {
		jsonErr(w, http.StatusConflict, "simulator already running")
		return
	}
	jsonResp(w, http.StatusOK, h.sim.Status())
}

// simulatorStop handles POST /api/v1/simulator/stop.
func (h *Handler) simulatorStop(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.sim.Stop()
	jsonResp(w, http.StatusOK, h.sim.Status())
}

// simulatorBurst handles POST /api/v1/simulator/burst?count=N.
func (h *Handler) simulatorBurst(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	count, err := queryInt(r, "count")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit := h.sim.Status().MaxBurstSize; count > limit {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("count %d exceeds the limit of %d", count, limit))
		return
	}
	n := h.sim.Burst(h.collector, count)
	jsonResp(w, http.StatusAccepted, BurstResponse{Scheduled: n})
}

// --- helpers ----------------------------------------------------------------

// allow writes a 405 and returns false unless r uses method.
func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter. Absent means 0,
// which every caller treats as "use the default".
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
