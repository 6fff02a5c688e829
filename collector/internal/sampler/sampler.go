package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
)

// Default values used when New is given non-positive arguments.
const (
	DefaultSize     = 60
	DefaultInterval = time.Second
)

// Source is what the sampler reads from. *metrics.Collector satisfies it.
type Source interface {
	Snapshot() metrics.Snapshot
	SystemHealth() metrics.SystemHealth
}

// Hook is called after every sample with the values just taken.
type Hook func(metrics.Snapshot, metrics.SystemHealth)

// Sampler records a Snapshot every interval and keeps the newest size of them.
//
// Sampler is safe for concurrent use.
type Sampler struct {
	src      Source
	size     int
	interval time.Duration
	hooks    []Hook

	mu      sync.RWMutex
	samples []metrics.Snapshot // oldest first
}

// New creates a Sampler over src. Hooks run synchronously on the Run
// goroutine, in order, after each sample is stored.
func New(src Source, size int, interval time.Duration, hooks ...Hook) *Sampler {
	if size <= 0 {
		size = DefaultSize
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		src:      src,
		size:     size,
		interval: interval,
		hooks:    hooks,
		samples:  make([]metrics.Snapshot, 0, size),
	}
}

// Sample takes one snapshot, appends it to the history and runs the hooks.
func (s *Sampler) Sample() metrics.Snapshot {
	snap := s.src.Snapshot()
	health := s.src.SystemHealth()

	s.mu.Lock()
	s.samples = append(s.samples, snap)
	if over := len(s.samples) - s.size; over > 0 {
		s.samples = s.samples[over:]
	}
	s.mu.Unlock()

	for _, h := range s.hooks {
		h(snap, health)
	}
	return snap
}

// History returns a copy of the retained samples, oldest first.
func (s *Sampler) History() []metrics.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]metrics.Snapshot, len(s.samples))
	copy(out, s.samples)
	return out
}

// Size returns the maximum number of samples retained.
func (s *Sampler) Size() int { return s.size }

// Reset drops all retained samples.
func (s *Sampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make([]metrics.Snapshot, 0, s.size)
}

// Run samples every interval until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	slog.Debug("sampler: running", "interval", s.interval, "size", s.size)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sample()
		}
	}
}
