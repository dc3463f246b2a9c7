package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"pycycles/internal/app"
	"pycycles/internal/catalog"
	"pycycles/internal/config"
	"pycycles/internal/cycles"
	"pycycles/internal/history"
	"pycycles/internal/observability"
	"pycycles/internal/output"
	"pycycles/internal/util"
	"pycycles/internal/version"
	"pycycles/internal/watcher"
)

// runner owns the long-lived pieces of one invocation: the analysis
// pipeline, the optional history store and the tracer provider.
type runner struct {
	cfg      *config.Config
	strategy cycles.Strategy
	analyzer *app.App
	store    *history.Store
	tracing  *observability.TracerProvider
}

func newRunner(cfg *config.Config, strat cycles.Strategy) (*runner, error) {
	tracing, err := observability.InitTracing(context.Background(), cfg.Telemetry.OTLPEndpoint, version.Version)
	if err != nil {
		return nil, err
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
	}

	conventions := catalog.DefaultConventions()
	if len(cfg.Exclude.Dirs) > 0 {
		conventions.ExcludeDirs = cfg.Exclude.Dirs
	}

	analyzer := app.New(app.Options{
		Roots:       cfg.Roots,
		Strategy:    strat,
		Strict:      cfg.Strict,
		Workers:     cfg.Workers,
		Conventions: conventions,
	})

	return &runner{
		cfg:      cfg,
		strategy: strat,
		analyzer: analyzer,
		store:    store,
		tracing:  tracing,
	}, nil
}

// RunOnce executes one analysis and writes every configured output. The
// returned code is the process exit code for single-shot mode.
func (r *runner) RunOnce(ctx context.Context) (int, error) {
	result, err := r.analyzer.Run(ctx)
	if err != nil {
		return exitFatal, err
	}

	if err := r.writeOutputs(result); err != nil {
		return exitFatal, err
	}

	output.WriteSummary(os.Stdout, result.Report)
	if r.cfg.Verbose {
		output.WriteCycleListing(os.Stderr, result.Report)
	}

	r.recordRun(result)

	if len(result.Report.Cycles) > r.cfg.Threshold {
		return exitCycles, nil
	}
	return exitOK, nil
}

func (r *runner) writeOutputs(result *app.Result) error {
	if r.cfg.Output.DOT != "" {
		dot := output.RenderDOT(result.Graph, result.Report)
		if err := util.WriteStringWithDirs(r.cfg.Output.DOT, dot, 0o644); err != nil {
			return err
		}
		slog.Debug("wrote DOT graph", "path", r.cfg.Output.DOT)
	}

	if r.cfg.Output.SARIF != "" {
		projectRoot := ""
		if roots := util.UniqueRoots(r.cfg.Roots); len(roots) > 0 {
			projectRoot = roots[0]
		}
		data, err := output.GenerateSARIF(projectRoot, result.Graph, result.Report)
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(r.cfg.Output.SARIF, data, 0o644); err != nil {
			return err
		}
		slog.Debug("wrote SARIF report", "path", r.cfg.Output.SARIF)
	}

	if r.cfg.Output.TSV != "" {
		if err := util.WriteStringWithDirs(r.cfg.Output.TSV, output.RenderTSV(result.Graph), 0o644); err != nil {
			return err
		}
		slog.Debug("wrote TSV edges", "path", r.cfg.Output.TSV)
	}

	return nil
}

// recordRun persists the outcome; history failures never fail the analysis.
func (r *runner) recordRun(result *app.Result) {
	if r.store == nil {
		return
	}
	err := r.store.SaveRun(history.Run{
		RunID:         result.RunID,
		Timestamp:     time.Now().UTC(),
		Strategy:      r.strategy.String(),
		Roots:         util.UniqueRoots(r.cfg.Roots),
		ModuleCount:   result.Catalog.Len(),
		EdgeCount:     result.Graph.EdgeCount(),
		CycleCount:    len(result.Report.Cycles),
		ParseFailures: len(result.ParseFailures),
		Complete:      result.Report.Complete,
		Duration:      result.Duration,
	})
	if err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}

// WatchLoop re-runs the analysis whenever the watched trees change, until
// the context is cancelled.
func (r *runner) WatchLoop(ctx context.Context) error {
	trigger := make(chan []string, 1)
	w, err := watcher.New(watcher.Config{
		Debounce:    r.cfg.Watch.Debounce,
		ExcludeDirs: r.cfg.Exclude.Dirs,
		RateLimit:   r.cfg.Watch.RateLimit,
	}, func(paths []string) {
		select {
		case trigger <- paths:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	roots := util.UniqueRoots(r.cfg.Roots)
	if err := w.Watch(ctx, roots); err != nil {
		return err
	}
	slog.Info("watching for changes", "roots", roots)

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-trigger:
			slog.Info("change detected, re-running analysis", "files", len(paths))
			if _, err := r.RunOnce(ctx); err != nil {
				slog.Error("re-analysis failed", "error", err)
			}
		}
	}
}

func (r *runner) Close(ctx context.Context) {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := r.tracing.Shutdown(shutdownCtx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
}
