package output

import (
	"fmt"
	"strings"

	"pycycles/internal/graph"
)

// RenderTSV emits every edge as one tab-separated row, sorted by endpoints.
func RenderTSV(g *graph.Graph) string {
	var buf strings.Builder

	buf.WriteString("From\tTo\tFile\tLine\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%d\n", e.From, e.To, e.File, e.Line)
	}

	return buf.String()
}
