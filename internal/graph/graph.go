package graph

import (
	"sort"
	"sync"

	"pycycles/internal/catalog"
	"pycycles/internal/errors"
	"pycycles/internal/observability"
)

// Edge is one resolved import dependency. File and Line point at the import
// statement in the origin module so report formatters can cite locations.
type Edge struct {
	From catalog.ModuleID
	To   catalog.ModuleID
	File string
	Line int
}

// Graph is the in-memory dependency graph. Nodes are registered first (the
// full catalog, including parse-failed files and namespace packages), edges
// after; Freeze makes it immutable, after which it may be read concurrently.
type Graph struct {
	mu        sync.RWMutex
	nodes     map[catalog.ModuleID]*catalog.ModuleRecord
	adjacency map[catalog.ModuleID]map[catalog.ModuleID]*Edge
	frozen    bool
}

func New() *Graph {
	return &Graph{
		nodes:     make(map[catalog.ModuleID]*catalog.ModuleRecord),
		adjacency: make(map[catalog.ModuleID]map[catalog.ModuleID]*Edge),
	}
}

func (g *Graph) AddNode(rec *catalog.ModuleRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return errors.New(errors.CodeInternal, "graph is frozen")
	}
	g.nodes[rec.ID] = rec
	return nil
}

// AddEdge records a dependency. Both endpoints must already be registered
// nodes; the first edge between a pair of modules wins so the cited source
// line is the earliest import.
func (g *Graph) AddEdge(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return errors.New(errors.CodeInternal, "graph is frozen")
	}
	if _, ok := g.nodes[e.From]; !ok {
		return errors.AddContext(errors.New(errors.CodeInternal, "edge origin is not a registered node"), errors.CtxModule, string(e.From))
	}
	if _, ok := g.nodes[e.To]; !ok {
		return errors.AddContext(errors.New(errors.CodeInternal, "edge target is not a registered node"), errors.CtxModule, string(e.To))
	}

	targets := g.adjacency[e.From]
	if targets == nil {
		targets = make(map[catalog.ModuleID]*Edge)
		g.adjacency[e.From] = targets
	}
	if _, exists := targets[e.To]; !exists {
		edge := e
		targets[e.To] = &edge
	}
	return nil
}

// Freeze marks construction complete and publishes graph size metrics.
func (g *Graph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true

	observability.GraphNodes.Set(float64(len(g.nodes)))
	edgeCount := 0
	for _, targets := range g.adjacency {
		edgeCount += len(targets)
	}
	observability.GraphEdges.Set(float64(edgeCount))
}

func (g *Graph) Node(id catalog.ModuleID) (*catalog.ModuleRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.nodes[id]
	return rec, ok
}

// Nodes returns all module identifiers in sorted order.
func (g *Graph) Nodes() []catalog.ModuleID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]catalog.ModuleID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Neighbors returns the sorted adjacency of one node.
func (g *Graph) Neighbors(id catalog.ModuleID) []catalog.ModuleID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	targets := g.adjacency[id]
	out := make([]catalog.ModuleID, 0, len(targets))
	for to := range targets {
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Adjacency returns the whole graph as sorted neighbor lists, the form the
// cycle strategies consume.
func (g *Graph) Adjacency() map[catalog.ModuleID][]catalog.ModuleID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[catalog.ModuleID][]catalog.ModuleID, len(g.nodes))
	for id := range g.nodes {
		targets := g.adjacency[id]
		neighbors := make([]catalog.ModuleID, 0, len(targets))
		for to := range targets {
			neighbors = append(neighbors, to)
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		out[id] = neighbors
	}
	return out
}

// Edges returns every edge sorted by (From, To).
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0)
	for _, targets := range g.adjacency {
		for _, edge := range targets {
			out = append(out, *edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// EdgeBetween returns the recorded edge between two modules, if any.
func (g *Graph) EdgeBetween(from, to catalog.ModuleID) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if targets := g.adjacency[from]; targets != nil {
		if edge, ok := targets[to]; ok {
			return *edge, true
		}
	}
	return Edge{}, false
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, targets := range g.adjacency {
		count += len(targets)
	}
	return count
}
