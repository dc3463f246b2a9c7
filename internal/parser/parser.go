package parser

import (
	"os"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"pycycles/internal/catalog"
	"pycycles/internal/errors"
	"pycycles/internal/observability"
)

// Parser turns one source file into its ordered import references. It is
// stateless apart from the loaded grammar and safe for concurrent use; each
// call creates its own tree-sitter parser.
type Parser struct {
	language *sitter.Language
}

func New() *Parser {
	return &Parser{
		language: sitter.NewLanguage(tree_sitter_python.Language()),
	}
}

// ExtractFile reads and parses the file behind a ModuleRecord. A file that
// cannot be read or produces a syntax-error tree yields a PARSE_ERROR; the
// caller decides whether that aborts the run.
func (p *Parser) ExtractFile(rec *catalog.ModuleRecord) ([]ImportReference, error) {
	content, err := os.ReadFile(rec.Path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeParse, "cannot read source file"), errors.CtxPath, rec.Path)
	}
	return p.Extract(rec.ID, content, rec.Path)
}

// Extract parses source text and collects import statements in source order.
func (p *Parser) Extract(origin catalog.ModuleID, source []byte, path string) ([]ImportReference, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.Observe(time.Since(start).Seconds())
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set grammar")
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "syntax error"), errors.CtxPath, path)
	}

	e := &importExtractor{origin: origin, source: source}
	e.walk(root)
	return e.refs, nil
}
