package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pycycles/internal/cycles"
	"pycycles/internal/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func TestRunFindsTriangle(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import c\n",
		"c.py": "import a\n",
		"d.py": "x = 1\n",
	})

	a := New(Options{Roots: []string{root}, Strategy: cycles.StrategyJohnson})
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Found 1 import cycles", result.Report.Summary())
	require.Len(t, result.Report.Cycles, 1)
	assert.Equal(t, cycles.Cycle{"a", "b", "c"}, result.Report.Cycles[0])

	// Modules without imports stay in the graph as isolated nodes.
	_, ok := result.Graph.Node("d")
	assert.True(t, ok)
	assert.Empty(t, result.Graph.Neighbors("d"))
}

func TestRunEmptyRoot(t *testing.T) {
	a := New(Options{Roots: []string{t.TempDir()}})
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Found 0 import cycles", result.Report.Summary())
	assert.Equal(t, 0, result.Graph.NodeCount())
}

func TestRunPackageCycle(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py":  "",
		"pkg/one.py":       "from . import two\n",
		"pkg/two.py":       "from pkg import one\n",
		"pkg/unrelated.py": "import os\n",
	})

	a := New(Options{Roots: []string{root}, Strategy: cycles.StrategyJohnson})
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Report.Cycles, 1)
	assert.Equal(t, cycles.Cycle{"pkg.one", "pkg.two"}, result.Report.Cycles[0])
}

func TestRunRecordsParseFailures(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.py":   "import broken\n",
		"broken.py": "def broken(:\n",
	})

	a := New(Options{Roots: []string{root}})
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.ParseFailures, 1)
	assert.Equal(t, "broken", string(result.ParseFailures[0].Module))
	assert.True(t, errors.IsCode(result.ParseFailures[0].Err, errors.CodeParse))

	// The failed module still exists as a node, it just contributes no edges.
	_, ok := result.Graph.Node("broken")
	assert.True(t, ok)
	edges := result.Graph.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "good", string(edges[0].From))
}

func TestRunStrictModeAborts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"broken.py": "def broken(:\n",
	})

	a := New(Options{Roots: []string{root}, Strict: true})
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParse))
}

func TestRunMissingRoot(t *testing.T) {
	a := New(Options{Roots: []string{filepath.Join(t.TempDir(), "absent")}})
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestRunDeterministic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "import b\nimport c\n",
		"b.py": "import a\n",
		"c.py": "import a\n",
	})

	a := New(Options{Roots: []string{root}, Strategy: cycles.StrategyJohnson, Workers: 8})

	first, err := a.Run(context.Background())
	require.NoError(t, err)
	second, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Report.Cycles, second.Report.Cycles)
	assert.Equal(t, first.Graph.Edges(), second.Graph.Edges())
}
