package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pycycles/internal/catalog"
	"pycycles/internal/cycles"
	"pycycles/internal/graph"
)

func triangleGraph(t *testing.T) (*graph.Graph, *cycles.Report) {
	t.Helper()
	g := graph.New()
	for _, id := range []catalog.ModuleID{"a", "b", "c", "lonely"} {
		require.NoError(t, g.AddNode(&catalog.ModuleRecord{ID: id, Kind: catalog.KindModule}))
	}
	require.NoError(t, g.AddEdge(graph.Edge{From: "a", To: "b", File: "a.py", Line: 2}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "b", To: "c", File: "b.py", Line: 1}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "c", To: "a", File: "c.py", Line: 4}))
	g.Freeze()

	report, err := cycles.Find(t.Context(), g, cycles.StrategyJohnson)
	require.NoError(t, err)
	return g, report
}

func TestRenderDOT(t *testing.T) {
	g, report := triangleGraph(t)
	dot := RenderDOT(g, report)

	assert.True(t, strings.HasPrefix(dot, "digraph imports {"))
	assert.Contains(t, dot, `"a" [fillcolor="mistyrose"`)
	assert.Contains(t, dot, `"lonely" [color="darkslategrey"];`)
	assert.Contains(t, dot, `"a" -> "b" [color="red", penwidth=2.5, label="CYCLE"];`)
	assert.True(t, strings.HasSuffix(dot, "}\n"))

	// Regenerating must be byte-identical.
	assert.Equal(t, dot, RenderDOT(g, report))
}

func TestRenderTSV(t *testing.T) {
	g, _ := triangleGraph(t)
	tsv := RenderTSV(g)

	lines := strings.Split(strings.TrimRight(tsv, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "From\tTo\tFile\tLine", lines[0])
	assert.Equal(t, "a\tb\ta.py\t2", lines[1])
	assert.Equal(t, "b\tc\tb.py\t1", lines[2])
	assert.Equal(t, "c\ta\tc.py\t4", lines[3])
}

func TestGenerateSARIF(t *testing.T) {
	g, report := triangleGraph(t)
	data, err := GenerateSARIF("", g, report)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2.1.0", doc["version"])

	runs := doc["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)

	results := run["results"].([]any)
	require.Len(t, results, 1)
	result := results[0].(map[string]any)
	assert.Equal(t, "PYC001", result["ruleId"])
	assert.Equal(t, "error", result["level"])
	msg := result["message"].(map[string]any)
	assert.Equal(t, "Import cycle: a -> b -> c", msg["text"])

	locations := result["locations"].([]any)
	require.Len(t, locations, 1)
	phys := locations[0].(map[string]any)["physicalLocation"].(map[string]any)
	artifact := phys["artifactLocation"].(map[string]any)
	assert.Equal(t, "a.py", artifact["uri"])
	assert.Equal(t, "%SRCROOT%", artifact["uriBaseId"])
	region := phys["region"].(map[string]any)
	assert.Equal(t, float64(2), region["startLine"])
}

func TestGenerateSARIFIncomplete(t *testing.T) {
	g := graph.New()
	g.Freeze()
	report := &cycles.Report{Strategy: cycles.StrategyJohnson, Complete: false}

	data, err := GenerateSARIF("", g, report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PYC002")
	assert.Contains(t, string(data), "interrupted")
}

func TestWriteCycleListing(t *testing.T) {
	_, report := triangleGraph(t)
	var buf strings.Builder
	WriteCycleListing(&buf, report)
	assert.Contains(t, buf.String(), "1: [a, b, c]")
}

func TestWriteSummary(t *testing.T) {
	_, report := triangleGraph(t)
	var buf strings.Builder
	WriteSummary(&buf, report)
	assert.Contains(t, buf.String(), "Found 1 import cycles")
}
