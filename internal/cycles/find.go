package cycles

import (
	"context"
	"fmt"

	"pycycles/internal/catalog"
	"pycycles/internal/errors"
	"pycycles/internal/graph"
	"pycycles/internal/observability"
)

// Find runs the selected strategy over a frozen graph and returns the
// normalized report. When the johnson strategy is interrupted through the
// context, the partial report is returned alongside an INCOMPLETE error and
// Report.Complete is false.
func Find(ctx context.Context, g *graph.Graph, strategy Strategy) (*Report, error) {
	adj := g.Adjacency()
	neighbors := func(id catalog.ModuleID) []catalog.ModuleID { return adj[id] }
	nodes := g.Nodes()

	var raw []Cycle
	var detectErr error

	switch strategy {
	case StrategyDFS:
		raw = detectDFS(nodes, neighbors)
	case StrategyJohnson:
		raw, detectErr = detectJohnson(ctx, nodes, neighbors)
	case StrategyTarjan:
		raw = detectTarjan(nodes, neighbors)
	default:
		return nil, errors.New(errors.CodeConfiguration, fmt.Sprintf("unknown strategy %q", strategy))
	}

	report := newReport(strategy, raw, detectErr == nil)
	observability.CyclesFound.Set(float64(len(report.Cycles)))
	return report, detectErr
}
