// Package main is the entry point for the withdrawal fulfillment bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/skinflow/fulfillment-bot/business/market"
	"github.com/skinflow/fulfillment-bot/business/pricing"
	"github.com/skinflow/fulfillment-bot/business/trading"
	tradingDI "github.com/skinflow/fulfillment-bot/business/trading/di"
	"github.com/skinflow/fulfillment-bot/business/withdrawal"
	withdrawalApp "github.com/skinflow/fulfillment-bot/business/withdrawal/app"
	withdrawalDI "github.com/skinflow/fulfillment-bot/business/withdrawal/di"
	"github.com/skinflow/fulfillment-bot/internal/apm"
	"github.com/skinflow/fulfillment-bot/internal/config"
	"github.com/skinflow/fulfillment-bot/internal/health"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/metrics"
	"github.com/skinflow/fulfillment-bot/internal/monolith"
	"github.com/skinflow/fulfillment-bot/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fulfillment-bot %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.Engine.TUIMode = tuiMode

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting withdrawal fulfillment bot",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	healthServer.RegisterCheck("database", func(ctx context.Context) (bool, string) {
		if err := mono.DB().Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, "connected"
	})

	// Define modules in dependency order
	modules := []monolith.Module{
		&trading.Module{},    // Bot inventory and trade offers
		&market.Module{},     // Secondary marketplace purchases
		&pricing.Module{},    // Price feed with cache
		&withdrawal.Module{}, // Depends on all of the above
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer.RegisterCheck("trading", func(ctx context.Context) (bool, string) {
		if !tradingDI.GetTradeService(mono.Services()).Enabled() {
			return false, "trade source disabled"
		}
		return true, "enabled"
	})

	if tuiMode {
		// TUI mode: start modules in background so the dashboard shows immediately
		startFunc := func() error {
			return mono.StartModules(ctx, modules...)
		}
		stopFunc := func() {
			engine := withdrawalDI.GetEngine(mono.Services())
			engine.Stop()
		}
		return runTUI(ctx, startFunc, stopFunc)
	}

	// CLI mode: start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	engine := withdrawalDI.GetEngine(mono.Services())
	return runCLI(ctx, engine, log)
}

func runCLI(ctx context.Context, engine *withdrawalApp.Engine, log *logger.Logger) error {
	log.Info(ctx, "all modules started, fulfillment engine running")

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")

	if err := engine.Stop(); err != nil {
		log.Error(ctx, "error stopping engine", "error", err)
	}

	return nil
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	errCh := make(chan error, 1)
	go func() {
		// Module startup (connections, login) happens while the TUI is live
		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()

		stopFunc()
		errCh <- nil
	}()

	// Run TUI (blocking)
	if err := ui.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
