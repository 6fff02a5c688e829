package simulator

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sensorpulse/sensorpulse/collector/internal/stats"
	"github.com/sensorpulse/sensorpulse/pkg/types"
)

// Defaults used when a Config count, rate or limit is zero. A zero
// FailureRate is taken literally.
const (
	DefaultDeviceCount        = 50
	DefaultEventsPerSecond    = 12
	DefaultBurstSize          = 500
	DefaultMaxEventsPerSecond = 1000
	DefaultMaxBurstSize       = 10000

	// burstSpread is the window over which a burst's events are scattered.
	burstSpread = time.Second
)

// Sink receives generated events together with their simulated outcome.
// *metrics.Collector satisfies it.
type Sink interface {
	RecordEvent(ev types.SensorEvent, success bool)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ev types.SensorEvent, success bool)

// RecordEvent calls f(ev, success).
func (f SinkFunc) RecordEvent(ev types.SensorEvent, success bool) { f(ev, success) }

// Config controls the generated population and pacing.
type Config struct {
	DeviceCount     int
	EventsPerSecond int
	BurstSize       int
	FailureRate     float64 // probability in [0, 1] that an event is reported as failed

	// Upper bounds on any requested rate or burst; larger requests are clamped.
	MaxEventsPerSecond int
	MaxBurstSize       int
}

func (c Config) withDefaults() Config {
	if c.DeviceCount <= 0 {
		c.DeviceCount = DefaultDeviceCount
	}
	if c.EventsPerSecond <= 0 {
		c.EventsPerSecond = DefaultEventsPerSecond
	}
	if c.BurstSize <= 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.FailureRate < 0 {
		c.FailureRate = 0
	}
	if c.MaxEventsPerSecond <= 0 {
		c.MaxEventsPerSecond = DefaultMaxEventsPerSecond
	}
	if c.MaxBurstSize <= 0 {
		c.MaxBurstSize = DefaultMaxBurstSize
	}
	c.EventsPerSecond = min(c.EventsPerSecond, c.MaxEventsPerSecond)
	c.BurstSize = min(c.BurstSize, c.MaxBurstSize)
	return c
}

// valueRange is the inclusive-exclusive [min, max) band each sensor type reads in.
var valueRange = map[types.SensorType][2]float64{
	types.SensorTemperature:   {15, 35},   // °C
	types.SensorAccelerometer: {-10, 10},  // m/s²
	types.SensorPressure:      {980, 1040}, // hPa
	types.SensorHumidity:      {30, 80},   // %
}

// Status is a point-in-time view of the simulator for the API.
type Status struct {
	Running         bool    `json:"running"`
	EventsPerSecond int     `json:"events_per_second"`
	DeviceCount     int     `json:"device_count"`
	FailureRate     float64 `json:"failure_rate"`
	PendingBurst    int     `json:"pending_burst"`
	Generated       uint64  `json:"generated"`

	MaxEventsPerSecond int `json:"max_events_per_second"`
	MaxBurstSize       int `json:"max_burst_size"`
}

// Simulator produces synthetic sensor readings at a steady rate and in bursts.
type Simulator struct {
	mu     sync.Mutex
	cfg    Config
	rng    *rand.Rand
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{} // non-nil while the steady loop runs
	rate   int           // effective rate of the running loop
	done   chan struct{} // closed when the steady loop exits
	bursts map[*time.Timer]struct{}

	// burstDelay picks the offset of one burst event; replaced in tests.
	burstDelay func() time.Duration

	generated atomic.Uint64
}

// New returns a stopped Simulator.
func New(cfg Config) *Simulator {
	s := &Simulator{
		cfg:    cfg.withDefaults(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		bursts: make(map[*time.Timer]struct{}),
	}
	s.burstDelay = s.randomBurstDelay
	return s
}

// Generate returns one random reading and whether it should be reported as
// a success. It does not deliver the event anywhere.
func (s *Simulator) Generate() (types.SensorEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := types.SensorTypes[s.rng.Intn(len(types.SensorTypes))]
	r := valueRange[st]

	ev := types.SensorEvent{
		ID:         "evt-" + uuid.NewString(),
		DeviceID:   fmt.Sprintf("device-%03d", s.rng.Intn(s.cfg.DeviceCount)+1),
		SensorType: st,
		Value:      stats.RoundTo(r[0]+s.rng.Float64()*(r[1]-r[0]), 2),
		Timestamp:  s.now().UnixMilli(),
	}
	success := s.rng.Float64() >= s.cfg.FailureRate
	return ev, success
}

// Start begins steady generation into sink at eventsPerSecond (the configured
// rate if <= 0, at most MaxEventsPerSecond). It reports false and does
// nothing if already running.
func (s *Simulator) Start(sink Sink, eventsPerSecond int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return false
	}
	if eventsPerSecond <= 0 {
		eventsPerSecond = s.cfg.EventsPerSecond
	}
	if eventsPerSecond > s.cfg.MaxEventsPerSecond {
		slog.Warn("simulator: rate clamped",
			"requested", eventsPerSecond, "max", s.cfg.MaxEventsPerSecond)
		eventsPerSecond = s.cfg.MaxEventsPerSecond
	}

	s.rate = eventsPerSecond
	s.ticker = time.NewTicker(tickInterval(eventsPerSecond))
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(sink, s.ticker, s.stop, s.done)

	slog.Info("simulator: started", "events_per_second", eventsPerSecond)
	return true
}

func (s *Simulator) loop(sink Sink, t *time.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.emit(sink)
		}
	}
}

// Burst schedules count events (the configured burst size if <= 0, at most
// MaxBurstSize), each delivered after an independent random delay under one
// second. Pending burst events are cancelled by Stop. Burst works whether or
// not the steady loop is running. It returns the number of events scheduled.
func (s *Simulator) Burst(sink Sink, count int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count <= 0 {
		count = s.cfg.BurstSize
	}
	if count > s.cfg.MaxBurstSize {
		slog.Warn("simulator: burst clamped",
			"requested", count, "max", s.cfg.MaxBurstSize)
		count = s.cfg.MaxBurstSize
	}

	for i := 0; i < count; i++ {
		var t *time.Timer
		// The callback takes s.mu, so it cannot observe t before the
		// assignment below completes.
		t = time.AfterFunc(s.burstDelay(), func() {
			s.mu.Lock()
			_, pending := s.bursts[t]
			delete(s.bursts, t)
			s.mu.Unlock()
			if pending {
				s.emit(sink)
			}
		})
		s.bursts[t] = struct{}{}
	}

	slog.Info("simulator: burst scheduled", "count", count)
	return count
}

// Stop halts steady generation and cancels every pending burst event.
// It is safe to call when nothing is running.
func (s *Simulator) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.ticker = nil
	cancelled := len(s.bursts)
	for t := range s.bursts {
		t.Stop()
	}
	s.bursts = make(map[*time.Timer]struct{})
	s.mu.Unlock()

	if stop == nil && cancelled == 0 {
		return
	}
	if stop != nil {
		close(stop)
		<-done
	}
	slog.Info("simulator: stopped", "cancelled_burst_events", cancelled)
}

// Reconfigure applies cfg to subsequent events. A running loop follows the
// configured rate only when that rate itself changed, so a rate chosen at
// Start survives reloads that touch other fields. A running rate above the
// new MaxEventsPerSecond is lowered to it.
func (s *Simulator) Reconfigure(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg
	s.cfg = cfg.withDefaults()
	if s.ticker == nil {
		return
	}

	rate := s.rate
	if s.cfg.EventsPerSecond != prev.EventsPerSecond {
		rate = s.cfg.EventsPerSecond
	}
	rate = min(rate, s.cfg.MaxEventsPerSecond)
	if rate != s.rate {
		s.rate = rate
		s.ticker.Reset(tickInterval(rate))
		slog.Info("simulator: rate changed", "events_per_second", rate)
	}
}

// Status returns the current simulator state.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := s.cfg.EventsPerSecond
	if s.stop != nil {
		rate = s.rate
	}
	return Status{
		Running:         s.stop != nil,
		EventsPerSecond: rate,
		DeviceCount:     s.cfg.DeviceCount,
		FailureRate:     s.cfg.FailureRate,
		PendingBurst:    len(s.bursts),
		Generated:       s.generated.Load(),

		MaxEventsPerSecond: s.cfg.MaxEventsPerSecond,
		MaxBurstSize:       s.cfg.MaxBurstSize,
	}
}

func (s *Simulator) emit(sink Sink) {
	ev, ok := s.Generate()
	s.generated.Add(1)
	sink.RecordEvent(ev, ok)
}

// randomBurstDelay is called with s.mu held.
func (s *Simulator) randomBurstDelay() time.Duration {
	return time.Duration(s.rng.Int63n(int64(burstSpread)))
}

func tickInterval(eventsPerSecond int) time.Duration {
	d := time.Second / time.Duration(eventsPerSecond)
	if d <= 0 {
		d = time.Nanosecond
	}
	return d
}
