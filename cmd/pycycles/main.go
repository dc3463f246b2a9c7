package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pycycles/internal/config"
	"pycycles/internal/cycles"
	"pycycles/internal/version"
)

const defaultConfigPath = "./pycycles.toml"

var (
	configPath  = flag.String("config", defaultConfigPath, "Path to config file")
	strategy    = flag.String("strategy", "", "Cycle detection strategy: dfs, johnson or tarjan")
	threshold   = flag.Int("threshold", -1, "Maximum number of cycles before a non-zero exit")
	strict      = flag.Bool("strict", false, "Treat unparseable files as fatal")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging and per-cycle listing")
	watch       = flag.Bool("watch", false, "Re-run analysis when sources change")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Exit codes: 0 clean, 1 cycle count above threshold, 2 fatal error.
const (
	exitOK     = 0
	exitCycles = 1
	exitFatal  = 2
)

// main delegates to run so deferred cleanup (history store, span flush)
// executes before the process exits.
func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("pycycles %s\n", version.Version)
		return exitOK
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFatal
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return exitFatal
	}

	strat, err := cycles.ParseStrategy(cfg.Strategy)
	if err != nil {
		slog.Error("invalid strategy", "error", err)
		return exitFatal
	}

	if cfg.Telemetry.MetricsAddr != "" {
		go serveMetrics(cfg.Telemetry.MetricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(cfg, strat)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return exitFatal
	}
	defer runner.Close(ctx)

	code, err := runner.RunOnce(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return exitFatal
	}

	if cfg.Watch.Enabled {
		if err := runner.WatchLoop(ctx); err != nil {
			slog.Error("watch mode failed", "error", err)
			return exitFatal
		}
		return exitOK
	}

	return code
}

// loadConfig reads the configured TOML file. The default path is allowed to
// be absent; an explicitly passed path is not.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err == nil {
		return cfg, nil
	}
	if *configPath == defaultConfigPath {
		if _, statErr := os.Stat(*configPath); os.IsNotExist(statErr) {
			return config.Default(), nil
		}
	}
	return nil, err
}

// applyFlags overlays explicitly set flags and positional roots onto the
// loaded config.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strategy":
			cfg.Strategy = *strategy
		case "threshold":
			cfg.Threshold = *threshold
		case "strict":
			cfg.Strict = *strict
		case "verbose":
			cfg.Verbose = *verbose
		case "watch":
			cfg.Watch.Enabled = *watch
		case "metrics-addr":
			cfg.Telemetry.MetricsAddr = *metricsAddr
		}
	})
	if flag.NArg() > 0 {
		cfg.Roots = flag.Args()
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}
