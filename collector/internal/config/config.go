package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHistorySize = 1000

	DefaultDeviceCount        = 50
	DefaultEventsPerSecond    = 12
	DefaultBurstSize          = 500
	DefaultFailureRate        = 0.005
	DefaultMaxEventsPerSecond = 1000
	DefaultMaxBurstSize       = 10000

	DefaultHTTPPort           = 8080
	DefaultGRPCPort           = 50051
	DefaultBroadcastInterval  = time.Second
	DefaultSampleInterval     = time.Second
	DefaultSampleHistory      = 60
	DefaultHealthPollInterval = 5 * time.Second

	DefaultLatencyWarningMs        = 200
	DefaultLatencyCriticalMs       = 500
	DefaultAvailabilityWarningPct  = 99
	DefaultAvailabilityCriticalPct = 95
	DefaultThroughputInfo          = 100
	DefaultAlertCooldown           = time.Minute
	DefaultAlertHistory            = 50
)

// Config is the top-level configuration for the collector binary.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Server    ServerConfig    `yaml:"server"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// CollectorConfig sizes the in-memory aggregation engine.
type CollectorConfig struct {
	// HistorySize bounds both the event and latency histories.
	// Only read at startup; a reload that changes it is logged and ignored.
	HistorySize int `yaml:"history_size"`
}

// SimulatorConfig controls the synthetic event producer.
type SimulatorConfig struct {
	DeviceCount     int     `yaml:"device_count"`
	EventsPerSecond int     `yaml:"events_per_second"`
	BurstSize       int     `yaml:"burst_size"`
	FailureRate     float64 `yaml:"failure_rate"` // 0 to 1

	// MaxEventsPerSecond and MaxBurstSize bound what the API may request.
	MaxEventsPerSecond int `yaml:"max_events_per_second"`
	MaxBurstSize       int `yaml:"max_burst_size"`

	// Autostart begins steady generation as soon as the binary starts.
	Autostart bool `yaml:"autostart"`
}

// ServerConfig holds listener ports and background loop intervals.
type ServerConfig struct {
	// HTTPPort serves the REST API, the WebSocket stream and /metrics.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort serves the standard gRPC health service.
	GRPCPort int `yaml:"grpc_port"`

	BroadcastInterval  time.Duration `yaml:"broadcast_interval"`
	SampleInterval     time.Duration `yaml:"sample_interval"`
	SampleHistory      int           `yaml:"sample_history"`
	HealthPollInterval time.Duration `yaml:"health_poll_interval"`
}

// AlertsConfig holds the fixed alert thresholds and webhook targets.
type AlertsConfig struct {
	LatencyWarningMs        float64 `yaml:"latency_warning_ms"`
	LatencyCriticalMs       float64 `yaml:"latency_critical_ms"`
	AvailabilityWarningPct  float64 `yaml:"availability_warning_pct"`
	AvailabilityCriticalPct float64 `yaml:"availability_critical_pct"`
	ThroughputInfo          float64 `yaml:"throughput_info"`

	// Cooldown suppresses re-fires of the same alert for this duration.
	Cooldown time.Duration `yaml:"cooldown"`

	// MaxHistory bounds the alert history list.
	MaxHistory int `yaml:"max_history"`

	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values. It is what the
// binary runs with when no config file is given.
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{
			HistorySize: DefaultHistorySize,
		},
		Simulator: SimulatorConfig{
			DeviceCount:     DefaultDeviceCount,
			EventsPerSecond: DefaultEventsPerSecond,
			BurstSize:       DefaultBurstSize,
			FailureRate:     DefaultFailureRate,

			MaxEventsPerSecond: DefaultMaxEventsPerSecond,
			MaxBurstSize:       DefaultMaxBurstSize,
		},
		Server: ServerConfig{
			HTTPPort:           DefaultHTTPPort,
			GRPCPort:           DefaultGRPCPort,
			BroadcastInterval:  DefaultBroadcastInterval,
			SampleInterval:     DefaultSampleInterval,
			SampleHistory:      DefaultSampleHistory,
			HealthPollInterval: DefaultHealthPollInterval,
		},
		Alerts: AlertsConfig{
			LatencyWarningMs:        DefaultLatencyWarningMs,
			LatencyCriticalMs:       DefaultLatencyCriticalMs,
			AvailabilityWarningPct:  DefaultAvailabilityWarningPct,
			AvailabilityCriticalPct: DefaultAvailabilityCriticalPct,
			ThroughputInfo:          DefaultThroughputInfo,
			Cooldown:                DefaultAlertCooldown,
			MaxHistory:              DefaultAlertHistory,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Collector.HistorySize <= 0 {
		return fmt.Errorf("collector.history_size must be positive")
	}

	sim := cfg.Simulator
	if sim.DeviceCount <= 0 || sim.DeviceCount > 999 {
		return fmt.Errorf("simulator.device_count %d is out of range [1, 999]", sim.DeviceCount)
	}
	if sim.EventsPerSecond <= 0 {
		return fmt.Errorf("simulator.events_per_second must be positive")
	}
	if sim.BurstSize <= 0 {
		return fmt.Errorf("simulator.burst_size must be positive")
	}
	if sim.FailureRate < 0 || sim.FailureRate > 1 {
		return fmt.Errorf("simulator.failure_rate %v is out of range [0, 1]", sim.FailureRate)
	}
	if sim.MaxEventsPerSecond <= 0 || sim.MaxBurstSize <= 0 {
		return fmt.Errorf("simulator.max_events_per_second and max_burst_size must be positive")
	}
	if sim.EventsPerSecond > sim.MaxEventsPerSecond {
		return fmt.Errorf("simulator.events_per_second %d exceeds max_events_per_second %d",
			sim.EventsPerSecond, sim.MaxEventsPerSecond)
	}
	if sim.BurstSize > sim.MaxBurstSize {
		return fmt.Errorf("simulator.burst_size %d exceeds max_burst_size %d",
			sim.BurstSize, sim.MaxBurstSize)
	}

	srv := cfg.Server
	if srv.HTTPPort <= 0 || srv.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", srv.HTTPPort)
	}
	if srv.GRPCPort <= 0 || srv.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [1, 65535]", srv.GRPCPort)
	}
	if srv.HTTPPort == srv.GRPCPort {
		return fmt.Errorf("server.http_port and server.grpc_port must differ")
	}
	if srv.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	if srv.SampleInterval <= 0 {
		return fmt.Errorf("server.sample_interval must be positive")
	}
	if srv.SampleHistory <= 0 {
		return fmt.Errorf("server.sample_history must be positive")
	}
	if srv.HealthPollInterval <= 0 {
		return fmt.Errorf("server.health_poll_interval must be positive")
	}

	al := cfg.Alerts
	if al.LatencyWarningMs > al.LatencyCriticalMs {
		return fmt.Errorf("alerts.latency_warning_ms (%v) exceeds latency_critical_ms (%v)",
			al.LatencyWarningMs, al.LatencyCriticalMs)
	}
	if al.AvailabilityCriticalPct > al.AvailabilityWarningPct {
		return fmt.Errorf("alerts.availability_critical_pct (%v) exceeds availability_warning_pct (%v)",
			al.AvailabilityCriticalPct, al.AvailabilityWarningPct)
	}
	if al.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown must not be negative")
	}
	if al.MaxHistory <= 0 {
		return fmt.Errorf("alerts.max_history must be positive")
	}
	for i, wh := range al.Webhooks {
		switch wh.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("alerts.webhooks[%d]: url_env is required", i)
		}
	}
	return nil
}
