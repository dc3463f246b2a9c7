package app

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"pycycles/internal/catalog"
	"pycycles/internal/cycles"
	"pycycles/internal/errors"
	"pycycles/internal/graph"
	"pycycles/internal/observability"
	"pycycles/internal/parser"
	"pycycles/internal/resolver"
)

// Options configure one analysis pipeline.
type Options struct {
	Roots       []string
	Strategy    cycles.Strategy
	Strict      bool
	Workers     int
	Conventions catalog.Conventions
}

// ParseFailure records one source file that could not be parsed during a
// non-strict run.
type ParseFailure struct {
	Module catalog.ModuleID
	Path   string
	Err    error
}

// Result is the complete outcome of one analysis run.
type Result struct {
	RunID         string
	Catalog       *catalog.Catalog
	Graph         *graph.Graph
	Report        *cycles.Report
	ParseFailures []ParseFailure
	Duration      time.Duration
}

// App runs the discover, parse, resolve, detect pipeline.
type App struct {
	opts   Options
	parser *parser.Parser
}

func New(opts Options) *App {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Strategy == "" {
		opts.Strategy = cycles.StrategyDFS
	}
	if opts.Conventions.Extension == "" {
		opts.Conventions = catalog.DefaultConventions()
	}
	return &App{opts: opts, parser: parser.New()}
}

// Run executes one full analysis. In strict mode the first parse failure
// aborts the run; otherwise failed files stay in the graph as isolated nodes
// and are listed in Result.ParseFailures. An interrupted cycle enumeration
// still yields a result, with Report.Complete false.
func (a *App) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()

	ctx, span := observability.Tracer.Start(ctx, "analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("strategy", a.opts.Strategy.String()),
	)

	cat, err := a.discover(ctx)
	if err != nil {
		return nil, err
	}

	refs, failures, err := a.parse(ctx, cat)
	if err != nil {
		return nil, err
	}

	g, err := a.build(ctx, cat, refs)
	if err != nil {
		return nil, err
	}

	report, err := a.detect(ctx, g)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:         runID,
		Catalog:       cat,
		Graph:         g,
		Report:        report,
		ParseFailures: failures,
		Duration:      time.Since(started),
	}

	slog.Info("analysis complete",
		"run_id", runID,
		"modules", cat.Len(),
		"edges", g.EdgeCount(),
		"cycles", len(report.Cycles),
		"parse_failures", len(failures),
		"complete", report.Complete,
		"duration", result.Duration)

	return result, nil
}

func (a *App) discover(ctx context.Context) (*catalog.Catalog, error) {
	_, span := observability.Tracer.Start(ctx, "discover")
	defer span.End()
	defer stageTimer("discover")()

	cat, err := catalog.Discover(a.opts.Roots, a.opts.Conventions)
	if err != nil {
		return nil, err
	}
	slog.Debug("module discovery complete", "modules", cat.Len(), "roots", a.opts.Roots)
	return cat, nil
}

// parse extracts import references from every source-backed module with a
// bounded worker pool. Results are merged by ModuleID so the outcome is
// independent of scheduling.
func (a *App) parse(ctx context.Context, cat *catalog.Catalog) (map[catalog.ModuleID][]parser.ImportReference, []ParseFailure, error) {
	_, span := observability.Tracer.Start(ctx, "parse")
	defer span.End()
	defer stageTimer("parse")()

	targets := cat.ParseTargets()
	refs := make(map[catalog.ModuleID][]parser.ImportReference, len(targets))
	var failures []ParseFailure
	var mu sync.Mutex

	jobs := make(chan *catalog.ModuleRecord)
	var wg sync.WaitGroup
	wg.Add(a.opts.Workers)
	for i := 0; i < a.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			for rec := range jobs {
				extracted, err := a.parser.ExtractFile(rec)
				if err != nil {
					observability.ParseFailuresTotal.Inc()
					mu.Lock()
					failures = append(failures, ParseFailure{Module: rec.ID, Path: rec.Path, Err: err})
					mu.Unlock()
					continue
				}
				mu.Lock()
				refs[rec.ID] = extracted
				mu.Unlock()
			}
		}()
	}

feed:
	for _, rec := range targets {
		select {
		case jobs <- rec:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeIncomplete, "parsing interrupted")
	}

	if a.opts.Strict && len(failures) > 0 {
		first := failures[0]
		return nil, nil, errors.AddContext(
			errors.Wrap(first.Err, errors.CodeParse, "strict mode: unparseable source file"),
			errors.CtxModule, string(first.Module))
	}
	for _, f := range failures {
		slog.Warn("skipping unparseable file", "module", f.Module, "path", f.Path, "error", f.Err)
	}

	return refs, failures, nil
}

// build registers every discovered module as a node, then resolves each
// module's references into edges in catalog order.
func (a *App) build(ctx context.Context, cat *catalog.Catalog, refs map[catalog.ModuleID][]parser.ImportReference) (*graph.Graph, error) {
	_, span := observability.Tracer.Start(ctx, "resolve")
	defer span.End()
	defer stageTimer("resolve")()

	g := graph.New()
	for _, rec := range cat.Records() {
		if err := g.AddNode(rec); err != nil {
			return nil, err
		}
	}

	res := resolver.New(cat)
	for _, rec := range cat.Records() {
		moduleRefs, ok := refs[rec.ID]
		if !ok {
			continue
		}
		for _, edge := range res.Resolve(rec, moduleRefs) {
			if err := g.AddEdge(edge); err != nil {
				return nil, err
			}
		}
	}

	g.Freeze()
	return g, nil
}

func (a *App) detect(ctx context.Context, g *graph.Graph) (*cycles.Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "detect")
	defer span.End()
	defer stageTimer("detect")()

	report, err := cycles.Find(ctx, g, a.opts.Strategy)
	if err != nil {
		if errors.IsCode(err, errors.CodeIncomplete) && report != nil {
			slog.Warn("cycle enumeration interrupted, report is incomplete", "cycles", len(report.Cycles))
			return report, nil
		}
		return nil, err
	}
	return report, nil
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		observability.AnalysisDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
