package alerts

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sensorpulse/sensorpulse/collector/internal/config"
	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
)

const (
	defaultMaxHistory = 50

	StateFiring   = "firing"
	StateResolved = "resolved"

	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert is one firing or resolved alert.
type Alert struct {
	ID         string     `json:"id"`
	Rule       string     `json:"rule"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	Threshold  float64    `json:"threshold"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Engine evaluates the fixed rule set against every sample and delivers
// webhook notifications when an alert fires or resolves.
//
// Engine is safe for concurrent use.
type Engine struct {
	client *http.Client
	now    func() time.Time

	mu       sync.Mutex
	cfg      config.AlertsConfig
	active   map[string]*Alert    // key: rule name
	lastFire map[string]time.Time // per rule, for cooldown
	history  []*Alert             // oldest first, bounded to cfg.MaxHistory
}

// New creates an Engine from the alerts configuration.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		cfg:      cfg,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
}

// SetConfig swaps thresholds, cooldown and webhooks. Currently firing alerts
// are re-checked against the new thresholds on the next Evaluate.
func (e *Engine) SetConfig(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.trimHistory()
}

// Evaluate runs every rule against one snapshot/health pair. Its signature
// matches sampler.Hook.
func (e *Engine) Evaluate(snap metrics.Snapshot, health metrics.SystemHealth) {
	now := e.now()

	e.mu.Lock()
	var notify []Alert
	for _, r := range ruleSet {
		fires, value, threshold := r.check(snap, health, e.cfg)
		a, isActive := e.active[r.name]

		switch {
		case fires && isActive:
			a.Value = value

		case fires:
			if last, ok := e.lastFire[r.name]; ok && now.Sub(last) < e.cfg.Cooldown {
				continue
			}
			a = &Alert{
				ID:        uuid.NewString(),
				Rule:      r.name,
				Severity:  r.severity,
				Message:   r.message(value, threshold),
				Value:     value,
				Threshold: threshold,
				FiredAt:   now,
				State:     StateFiring,
			}
			e.active[r.name] = a
			e.lastFire[r.name] = now
			e.history = append(e.history, a)
			e.trimHistory()
			notify = append(notify, *a)

			slog.Warn("alerts: alert fired",
				"rule", r.name,
				"severity", r.severity,
				"value", value,
				"threshold", threshold,
			)

		case isActive:
			resolved := now
			a.State = StateResolved
			a.ResolvedAt = &resolved
			delete(e.active, r.name)
			notify = append(notify, *a)

			slog.Info("alerts: alert resolved", "rule", r.name)
		}
	}
	webhooks := e.cfg.Webhooks
	e.mu.Unlock()

	for i := range notify {
		go e.deliver(webhooks, &notify[i])
	}
}

// Active returns copies of all firing alerts, newest first.
func (e *Engine) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// History returns copies of retained alerts, firing and resolved, newest first.
func (e *Engine) History() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alert, len(e.history))
	for i, a := range e.history {
		out[len(e.history)-1-i] = *a
	}
	return out
}

// Reset forgets every alert and cooldown.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = make(map[string]*Alert)
	e.lastFire = make(map[string]time.Time)
	e.history = nil
}

// trimHistory drops the oldest alerts beyond the configured bound. A firing
// alert that is trimmed stays active. Caller holds e.mu.
func (e *Engine) trimHistory() {
	limit := e.cfg.MaxHistory
	if limit <= 0 {
		limit = defaultMaxHistory
	}
	if over := len(e.history) - limit; over > 0 {
		e.history = e.history[over:]
	}
}
