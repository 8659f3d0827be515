package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/elevio/tracecheck/internal/checker"
	"github.com/elevio/tracecheck/internal/constants"
	"github.com/elevio/tracecheck/internal/domain"
	"github.com/elevio/tracecheck/internal/infra/config"
	"github.com/elevio/tracecheck/internal/infra/logging"
	"github.com/elevio/tracecheck/internal/infra/observability"
	"github.com/elevio/tracecheck/internal/live"
	"github.com/elevio/tracecheck/metrics"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.NewContextWithRun(ctx)

	runLog := slog.With(slog.String("run_id", logging.RunIDFromContext(ctx)))
	runLog.InfoContext(ctx, "trace checker starting",
		slog.String("environment", cfg.Environment),
		slog.String("script_path", cfg.ScriptPath),
		slog.String("log_path", cfg.LogPath),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		slog.Bool("live_monitor_enabled", cfg.LiveMonitorAddr != ""))

	tracer, err := observability.NewTelemetryProvider(&observability.ObservabilityConfig{
		Enabled:     !cfg.IsTesting(),
		ServiceName: "tracecheck",
		Environment: cfg.Environment,
	}, runLog)
	if err != nil {
		runLog.ErrorContext(ctx, "failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if shutdownErr := tracer.Shutdown(ctx); shutdownErr != nil {
			runLog.WarnContext(ctx, "telemetry shutdown failed", slog.String("error", shutdownErr.Error()))
		}
	}()

	scriptFile, err := os.Open(cfg.ScriptPath)
	if err != nil {
		runLog.ErrorContext(ctx, "failed to open script file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer scriptFile.Close()

	logFile, err := os.Open(cfg.LogPath)
	if err != nil {
		runLog.ErrorContext(ctx, "failed to open execution log", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer logFile.Close()

	var hub *live.Hub
	var snapshots chan domain.CarSnapshot
	if cfg.LiveMonitorAddr != "" {
		hub = live.NewHub(cfg.LiveMonitorAddr, logging.ComponentLogger(runLog, constants.ComponentLiveMonitor))
		snapshots = make(chan domain.CarSnapshot, 64)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			for snap := range snapshots {
				hub.Broadcast(snap)
			}
		}()
		go func() {
			if startErr := hub.Start(); startErr != nil {
				runLog.ErrorContext(ctx, "live monitor failed", slog.String("error", startErr.Error()))
			}
		}()
		go func() {
			<-quit
			shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
			defer shutdownCancel()
			_ = hub.Shutdown(shutdownCtx)
		}()
	}

	report, err := checker.Run(ctx, scriptFile, logFile, checker.Options{
		Logger:           runLog,
		Tracer:           tracer,
		Snapshots:        snapshots,
		StrictTolerances: cfg.StrictTolerances,
		MinFloor:         cfg.MinFloor,
		MaxFloor:         cfg.MaxFloor,
		FloorBoundsSet:   true,
	})
	if snapshots != nil {
		close(snapshots)
	}
	if err != nil {
		runLog.ErrorContext(ctx, "checker run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	run := domain.RunSnapshot{
		Accepted:     report.Accepted,
		ErrorCount:   report.ErrorCount,
		RuntimeSec:   report.RuntimeSec,
		WeightedWait: report.WeightedWait,
		EnergyWatt:   report.EnergyWatt,
	}
	if hub != nil {
		hub.BroadcastFinal(run)
	}

	for category, count := range report.ByCategory {
		tracer.RecordErrors(ctx, string(category), count)
	}

	if cfg.MetricsEnabled {
		for category, count := range report.ByCategory {
			metrics.RecordCategory(category, count)
		}
		metrics.RecordRun(run)
		if err := metrics.WriteTextfile(cfg.MetricsTextfilePath); err != nil {
			runLog.WarnContext(ctx, "failed to write metrics textfile", slog.String("error", err.Error()))
		}
	}

	fmt.Println(report.Summary())

	if !report.Accepted {
		os.Exit(1)
	}
}
