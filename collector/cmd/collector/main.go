package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/sensorpulse/sensorpulse/collector/internal/alerts"
	"github.com/sensorpulse/sensorpulse/collector/internal/api"
	"github.com/sensorpulse/sensorpulse/collector/internal/config"
	"github.com/sensorpulse/sensorpulse/collector/internal/exporter"
	"github.com/sensorpulse/sensorpulse/collector/internal/healthcheck"
	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
	"github.com/sensorpulse/sensorpulse/collector/internal/sampler"
	"github.com/sensorpulse/sensorpulse/collector/internal/simulator"
	"github.com/sensorpulse/sensorpulse/collector/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; built-in defaults when empty")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("sensorpulse-collector starting", "config", *configPath)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"history_size", cfg.Collector.HistorySize,
		"events_per_second", cfg.Simulator.EventsPerSecond,
		"autostart", cfg.Simulator.Autostart,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.New(cfg.Collector.HistorySize)
	sim := simulator.New(simulatorConfig(cfg.Simulator))

	// Alerts are evaluated on every sample tick.
	alertEngine := alerts.New(cfg.Alerts)
	smp := sampler.New(collector, cfg.Server.SampleHistory, cfg.Server.SampleInterval, alertEngine.Evaluate)
	go smp.Run(ctx)

	hub := ws.New(collector, cfg.Server.BroadcastInterval)
	go hub.Run(ctx)

	reporter := healthcheck.New(collector, cfg.Server.HealthPollInterval)
	go reporter.Run(ctx)

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				applyReload(cfg, next, sim, alertEngine)
			})
			if err != nil {
				slog.Error("config watch stopped", "err", err)
			}
		}()
	}

	if cfg.Simulator.Autostart {
		sim.Start(collector, cfg.Simulator.EventsPerSecond)
	}

	// gRPC exposes only the standard health service.
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, reporter.Server())

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		slog.Error("failed to listen on gRPC port",
			"port", cfg.Server.GRPCPort, "err", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("gRPC health listening", "port", cfg.Server.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "err", err)
		}
	}()

	// REST API, WebSocket stream and Prometheus exposition share HTTPPort.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(collector, smp, alertEngine, sim))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", exporter.Handler(collector))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("sensorpulse-collector shutting down")

	sim.Stop()
	grpcSrv.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

func simulatorConfig(c config.SimulatorConfig) simulator.Config {
	return simulator.Config{
		DeviceCount:     c.DeviceCount,
		EventsPerSecond: c.EventsPerSecond,
		BurstSize:       c.BurstSize,
		FailureRate:     c.FailureRate,

		MaxEventsPerSecond: c.MaxEventsPerSecond,
		MaxBurstSize:       c.MaxBurstSize,
	}
}

// applyReload pushes the hot-reloadable parts of next into the running
// components. startup is the config the process was built from; ports,
// intervals and history_size keep their startup values until a restart.
func applyReload(startup, next *config.Config, sim *simulator.Simulator, engine *alerts.Engine) {
	sim.Reconfigure(simulatorConfig(next.Simulator))
	engine.SetConfig(next.Alerts)

	if next.Collector.HistorySize != startup.Collector.HistorySize {
		slog.Warn("config: history_size change requires a restart",
			"current", startup.Collector.HistorySize, "requested", next.Collector.HistorySize)
	}
	if next.Server != startup.Server {
		slog.Warn("config: server section changes require a restart")
	}

	slog.Info("config reloaded",
		"events_per_second", next.Simulator.EventsPerSecond,
		"failure_rate", next.Simulator.FailureRate,
		"webhooks", len(next.Alerts.Webhooks),
	)
}
