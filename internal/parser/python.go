package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pycycles/internal/catalog"
)

// importExtractor visits only import-statement nodes. It is branch
// insensitive: an import nested inside a conditional or function body is
// collected like any other, and string-built targets are never recognized.
type importExtractor struct {
	origin catalog.ModuleID
	source []byte
	refs   []ImportReference
}

func (e *importExtractor) walk(node *sitter.Node) {
	switch node.Kind() {
	case "import_statement":
		e.extractImport(node)
		return
	case "import_from_statement":
		e.extractFromImport(node)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

// extractImport handles `import a.b.c` and `import a.b.c as abc`, one
// reference per comma-separated target.
func (e *importExtractor) extractImport(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			e.refs = append(e.refs, ImportReference{
				Origin: e.origin,
				Kind:   RefImport,
				Module: splitDots(e.text(child)),
				Line:   line(child),
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil {
				continue
			}
			ref := ImportReference{
				Origin: e.origin,
				Kind:   RefImport,
				Module: splitDots(e.text(name)),
				Line:   line(child),
			}
			if alias != nil {
				ref.Alias = e.text(alias)
			}
			e.refs = append(e.refs, ref)
		}
	}
}

// extractFromImport handles `from a.b import c, d`, `from . import x` and
// `from ..pkg import *`. Children before the `import` keyword describe the
// target module; children after it are the imported names.
func (e *importExtractor) extractFromImport(node *sitter.Node) {
	ref := ImportReference{
		Origin: e.origin,
		Kind:   RefFromImport,
		Line:   line(node),
	}

	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "import":
			seenImport = true
		case "relative_import":
			text := e.text(child)
			for _, r := range text {
				if r != '.' {
					break
				}
				ref.Level++
			}
			if rest := strings.TrimLeft(text, "."); rest != "" {
				ref.Module = splitDots(rest)
			}
		case "dotted_name", "identifier":
			if seenImport {
				ref.Names = append(ref.Names, e.text(child))
			} else {
				ref.Module = splitDots(e.text(child))
			}
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				ref.Names = append(ref.Names, e.text(name))
			}
		case "wildcard_import":
			ref.Names = append(ref.Names, "*")
		}
	}

	e.refs = append(e.refs, ref)
}

func (e *importExtractor) text(node *sitter.Node) string {
	return string(e.source[node.StartByte():node.EndByte()])
}

func line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func splitDots(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}
