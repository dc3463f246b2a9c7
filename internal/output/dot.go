package output

import (
	"fmt"
	"strings"

	"pycycles/internal/catalog"
	"pycycles/internal/cycles"
	"pycycles/internal/graph"
)

// RenderDOT produces a Graphviz digraph of the dependency graph with every
// cycle member and cycle edge highlighted. Nodes and edges are emitted in
// sorted order so regenerating the file never produces spurious diffs.
func RenderDOT(g *graph.Graph, report *cycles.Report) string {
	var buf strings.Builder

	buf.WriteString("digraph imports {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	inCycle := make(map[catalog.ModuleID]bool)
	cycleEdges := make(map[catalog.ModuleID]map[catalog.ModuleID]bool)
	for _, cycle := range report.Cycles {
		for i, m := range cycle {
			inCycle[m] = true
			next := cycle[(i+1)%len(cycle)]
			if cycleEdges[m] == nil {
				cycleEdges[m] = make(map[catalog.ModuleID]bool)
			}
			cycleEdges[m][next] = true
		}
	}

	for _, id := range g.Nodes() {
		if inCycle[id] {
			fmt.Fprintf(&buf, "  %q [fillcolor=\"mistyrose\", style=\"rounded,filled\", color=\"red\", penwidth=2.0];\n", id)
		} else {
			fmt.Fprintf(&buf, "  %q [color=\"darkslategrey\"];\n", id)
		}
	}
	buf.WriteString("\n")

	for _, e := range g.Edges() {
		if cycleEdges[e.From] != nil && cycleEdges[e.From][e.To] {
			fmt.Fprintf(&buf, "  %q -> %q [color=\"red\", penwidth=2.5, label=\"CYCLE\"];\n", e.From, e.To)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [color=\"grey\"];\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}
