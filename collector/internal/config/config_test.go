package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, "collector: {}\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collector.HistorySize != DefaultHistorySize {
		t.Errorf("history_size: got %d, want %d", cfg.Collector.HistorySize, DefaultHistorySize)
	}
	if cfg.Simulator.DeviceCount != DefaultDeviceCount {
		t.Errorf("device_count: got %d, want %d", cfg.Simulator.DeviceCount, DefaultDeviceCount)
	}
	if cfg.Simulator.EventsPerSecond != DefaultEventsPerSecond {
		t.Errorf("events_per_second: got %d, want %d", cfg.Simulator.EventsPerSecond, DefaultEventsPerSecond)
	}
	if cfg.Simulator.FailureRate != DefaultFailureRate {
		t.Errorf("failure_rate: got %v, want %v", cfg.Simulator.FailureRate, DefaultFailureRate)
	}
	if cfg.Simulator.MaxEventsPerSecond != DefaultMaxEventsPerSecond {
		t.Errorf("max_events_per_second: got %d, want %d", cfg.Simulator.MaxEventsPerSecond, DefaultMaxEventsPerSecond)
	}
	if cfg.Simulator.MaxBurstSize != DefaultMaxBurstSize {
		t.Errorf("max_burst_size: got %d, want %d", cfg.Simulator.MaxBurstSize, DefaultMaxBurstSize)
	}
	if cfg.Server.SampleHistory != DefaultSampleHistory {
		t.Errorf("sample_history: got %d, want %d", cfg.Server.SampleHistory, DefaultSampleHistory)
	}
	if cfg.Alerts.LatencyCriticalMs != DefaultLatencyCriticalMs {
		t.Errorf("latency_critical_ms: got %v, want %v", cfg.Alerts.LatencyCriticalMs, DefaultLatencyCriticalMs)
	}
	if cfg.Alerts.MaxHistory != DefaultAlertHistory {
		t.Errorf("max_history: got %d, want %d", cfg.Alerts.MaxHistory, DefaultAlertHistory)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `
collector:
  history_size: 250
simulator:
  device_count: 10
  events_per_second: 40
  burst_size: 100
  failure_rate: 0.02
  autostart: true
  max_events_per_second: 400
  max_burst_size: 2000
server:
  http_port: 9000
  grpc_port: 9001
  broadcast_interval: 2s
  sample_interval: 500ms
  sample_history: 120
  health_poll_interval: 10s
alerts:
  latency_warning_ms: 100
  latency_critical_ms: 300
  availability_warning_pct: 99.5
  availability_critical_pct: 97
  throughput_info: 50
  cooldown: 30s
  max_history: 20
  webhooks:
    - type: slack
      url_env: SLACK_URL
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collector.HistorySize != 250 {
		t.Errorf("history_size: got %d", cfg.Collector.HistorySize)
	}
	if !cfg.Simulator.Autostart {
		t.Error("autostart: got false, want true")
	}
	if cfg.Simulator.FailureRate != 0.02 {
		t.Errorf("failure_rate: got %v", cfg.Simulator.FailureRate)
	}
	if cfg.Simulator.MaxEventsPerSecond != 400 || cfg.Simulator.MaxBurstSize != 2000 {
		t.Errorf("limits: got %d eps, %d burst, want 400 and 2000",
			cfg.Simulator.MaxEventsPerSecond, cfg.Simulator.MaxBurstSize)
	}
	if cfg.Server.SampleInterval != 500*time.Millisecond {
		t.Errorf("sample_interval: got %v", cfg.Server.SampleInterval)
	}
	if cfg.Server.BroadcastInterval != 2*time.Second {
		t.Errorf("broadcast_interval: got %v", cfg.Server.BroadcastInterval)
	}
	if cfg.Alerts.AvailabilityWarningPct != 99.5 {
		t.Errorf("availability_warning_pct: got %v", cfg.Alerts.AvailabilityWarningPct)
	}
	if cfg.Alerts.Cooldown != 30*time.Second {
		t.Errorf("cooldown: got %v", cfg.Alerts.Cooldown)
	}
	if len(cfg.Alerts.Webhooks) != 1 || cfg.Alerts.Webhooks[0].Type != "slack" {
		t.Errorf("webhooks: got %+v", cfg.Alerts.Webhooks)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"zero history", "collector:\n  history_size: 0\n", "history_size"},
		{"negative failure rate", "simulator:\n  failure_rate: -0.1\n", "failure_rate"},
		{"failure rate above one", "simulator:\n  failure_rate: 1.5\n", "failure_rate"},
		{"too many devices", "simulator:\n  device_count: 1000\n", "device_count"},
		{"zero rate", "simulator:\n  events_per_second: 0\n", "events_per_second"},
		{"rate above max", "simulator:\n  events_per_second: 50\n  max_events_per_second: 20\n", "exceeds max_events_per_second"},
		{"burst above max", "simulator:\n  burst_size: 500\n  max_burst_size: 100\n", "exceeds max_burst_size"},
		{"zero max burst", "simulator:\n  max_burst_size: 0\n", "max_burst_size"},
		{"port out of range", "server:\n  http_port: 70000\n", "http_port"},
		{"same ports", "server:\n  http_port: 9000\n  grpc_port: 9000\n", "must differ"},
		{"zero sample interval", "server:\n  sample_interval: 0s\n", "sample_interval"},
		{"latency thresholds inverted", "alerts:\n  latency_warning_ms: 600\n", "latency_warning_ms"},
		{"availability thresholds inverted", "alerts:\n  availability_critical_pct: 99.9\n", "availability_critical_pct"},
		{"unknown webhook", "alerts:\n  webhooks:\n    - type: pager\n      url_env: X\n", "unknown type"},
		{"webhook missing env", "alerts:\n  webhooks:\n    - type: http\n", "url_env"},
		{"bad yaml", "collector: [\n", "parse yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Errorf("Default() fails validation: %v", err)
	}
}

func TestWebhookConfig_URL(t *testing.T) {
	t.Setenv("TEST_SLACK_URL", "https://hooks.slack.example.com/x")
	w := WebhookConfig{Type: "slack", URLEnv: "TEST_SLACK_URL"}
	if got := w.URL(); got != "https://hooks.slack.example.com/x" {
		t.Errorf("URL(): got %q", got)
	}
	if got := (WebhookConfig{Type: "http"}).URL(); got != "" {
		t.Errorf("URL() with no env: got %q, want empty", got)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "simulator:\n  events_per_second: 12\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(c *Config) { got <- c })
	}()

	// The watcher registers asynchronously, so keep rewriting until a reload lands.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			if cfg.Simulator.EventsPerSecond != 30 {
				t.Errorf("reloaded events_per_second: got %d, want 30", cfg.Simulator.EventsPerSecond)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned %v", err)
			}
			return
		case <-tick.C:
			if err := os.WriteFile(p, []byte("simulator:\n  events_per_second: 30\n"), 0o600); err != nil {
				t.Fatalf("rewrite config: %v", err)
			}
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}
}

func TestWatch_InvalidReloadSkipped(t *testing.T) {
	p := writeConfig(t, "simulator:\n  events_per_second: 12\n")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	called := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(*Config) { called <- struct{}{} })
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(p, []byte("simulator:\n  failure_rate: 7\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
	select {
	case <-called:
		t.Error("onChange called for an invalid config")
	default:
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {})
	if err == nil {
		t.Fatal("expected error watching a missing file, got nil")
	}
}

func TestLoad_ShippedExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "config", "collector.yaml"))
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	if !cfg.Simulator.Autostart {
		t.Error("autostart: got false, want true")
	}
	if len(cfg.Alerts.Webhooks) != 1 || cfg.Alerts.Webhooks[0].Type != "slack" {
		t.Errorf("webhooks: got %+v, want one slack target", cfg.Alerts.Webhooks)
	}
}
