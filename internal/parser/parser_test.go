package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pycycles/internal/errors"
)

func extract(t *testing.T, source string) []ImportReference {
	t.Helper()
	refs, err := New().Extract("origin.mod", []byte(source), "origin/mod.py")
	require.NoError(t, err)
	return refs
}

func TestExtractPlainImports(t *testing.T) {
	refs := extract(t, "import os\nimport foo.bar.baz\nimport a.b as ab, c\n")

	require.Len(t, refs, 4)
	assert.Equal(t, RefImport, refs[0].Kind)
	assert.Equal(t, []string{"os"}, refs[0].Module)
	assert.Equal(t, 1, refs[0].Line)

	assert.Equal(t, []string{"foo", "bar", "baz"}, refs[1].Module)
	assert.Equal(t, 2, refs[1].Line)

	assert.Equal(t, []string{"a", "b"}, refs[2].Module)
	assert.Equal(t, "ab", refs[2].Alias)
	assert.Equal(t, []string{"c"}, refs[3].Module)
	assert.Equal(t, 3, refs[3].Line)
}

func TestExtractFromImports(t *testing.T) {
	refs := extract(t, "from foo.bar import baz, qux as q\n")

	require.Len(t, refs, 1)
	ref := refs[0]
	assert.Equal(t, RefFromImport, ref.Kind)
	assert.Equal(t, 0, ref.Level)
	assert.Equal(t, []string{"foo", "bar"}, ref.Module)
	assert.Equal(t, []string{"baz", "qux"}, ref.Names)
}

func TestExtractRelativeImports(t *testing.T) {
	tests := []struct {
		source string
		level  int
		module []string
		names  []string
	}{
		{"from . import sibling\n", 1, nil, []string{"sibling"}},
		{"from .helpers import load\n", 1, []string{"helpers"}, []string{"load"}},
		{"from ..pkg.util import x, y\n", 2, []string{"pkg", "util"}, []string{"x", "y"}},
		{"from ... import root\n", 3, nil, []string{"root"}},
	}

	for _, tt := range tests {
		refs := extract(t, tt.source)
		require.Len(t, refs, 1, tt.source)
		assert.Equal(t, tt.level, refs[0].Level, tt.source)
		assert.Equal(t, tt.module, refs[0].Module, tt.source)
		assert.Equal(t, tt.names, refs[0].Names, tt.source)
	}
}

func TestExtractStarImport(t *testing.T) {
	refs := extract(t, "from foo.bar import *\n")
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"*"}, refs[0].Names)
}

func TestExtractNestedImports(t *testing.T) {
	source := `
def lazy():
    import heavy.module
    return heavy.module

if True:
    from cond import branch
`
	refs := extract(t, source)
	require.Len(t, refs, 2, "imports inside branches and functions are still static imports")
	assert.Equal(t, []string{"heavy", "module"}, refs[0].Module)
	assert.Equal(t, []string{"cond"}, refs[1].Module)
}

func TestExtractIgnoresDynamicImports(t *testing.T) {
	source := "mod = __import__('foo' + suffix)\nname = 'bar'\n"
	refs := extract(t, source)
	assert.Empty(t, refs)
}

func TestExtractSyntaxError(t *testing.T) {
	_, err := New().Extract("broken", []byte("def broken(:\n"), "broken.py")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParse))
}

func TestExtractSourceOrder(t *testing.T) {
	refs := extract(t, "import b\nimport a\nfrom c import d\n")
	require.Len(t, refs, 3)
	assert.Equal(t, []string{"b"}, refs[0].Module)
	assert.Equal(t, []string{"a"}, refs[1].Module)
	assert.Equal(t, []string{"c"}, refs[2].Module)
}
