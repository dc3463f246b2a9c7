package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pycycles_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pycycles_parse_failures_total",
		Help: "Total number of source files that failed to parse.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pycycles_graph_nodes_total",
		Help: "Total number of nodes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pycycles_graph_edges_total",
		Help: "Total number of edges in the dependency graph.",
	})

	CyclesFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pycycles_cycles_found",
		Help: "Number of import cycles found by the last analysis run.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pycycles_analysis_seconds",
		Help:    "Time spent on high-level analysis stages.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pycycles_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
