package parser

import "pycycles/internal/catalog"

// RefKind is the closed set of import-statement shapes the extractor
// recognizes. Aliased imports share RefImport (the alias never affects
// resolution); relative from-imports are RefFromImport with Level > 0.
type RefKind int

const (
	RefImport RefKind = iota
	RefFromImport
)

// ImportReference is one raw, unresolved import extracted from a module's
// source. Module holds the dotted target segments; Names holds the imported
// names of a from-import ("*" for a star import). Level is 0 for absolute
// references and the number of parent-package steps otherwise.
type ImportReference struct {
	Origin catalog.ModuleID
	Kind   RefKind
	Level  int
	Module []string
	Names  []string
	Alias  string
	Line   int
}
