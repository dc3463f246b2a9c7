package resolver

import (
	"pycycles/internal/catalog"
	"pycycles/internal/graph"
	"pycycles/internal/parser"
)

// Resolver maps raw import references onto modules known to the catalog.
// Targets outside the catalog (stdlib, third-party) resolve to nothing,
// which is what keeps the graph scoped to the analyzed project.
type Resolver struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve turns one module's references into dependency edges, preserving
// reference order. Unresolvable references are dropped silently.
func (r *Resolver) Resolve(origin *catalog.ModuleRecord, refs []parser.ImportReference) []graph.Edge {
	var edges []graph.Edge
	for _, ref := range refs {
		for _, target := range r.targets(origin, ref) {
			if !validEdge(origin, target) {
				continue
			}
			edges = append(edges, graph.Edge{
				From: origin.ID,
				To:   target.ID,
				File: origin.Path,
				Line: ref.Line,
			})
		}
	}
	return edges
}

func (r *Resolver) targets(origin *catalog.ModuleRecord, ref parser.ImportReference) []*catalog.ModuleRecord {
	switch ref.Kind {
	case parser.RefImport:
		if rec, ok := r.lookup(ref.Module); ok {
			return []*catalog.ModuleRecord{rec}
		}
		return nil
	case parser.RefFromImport:
		anchor, ok := r.anchor(origin, ref)
		if !ok {
			return nil
		}
		if ref.Level > 0 {
			return r.relativeFromTargets(anchor, ref)
		}
		return r.fromImportTargets(anchor, ref.Names)
	default:
		return nil
	}
}

// anchor computes the dotted prefix a from-import's names attach to. For
// relative references the walk starts at the origin's containing package
// (the package itself when the origin is an initializer) and climbs one
// level per additional dot; climbing past the analyzed roots drops the
// reference.
func (r *Resolver) anchor(origin *catalog.ModuleRecord, ref parser.ImportReference) ([]string, bool) {
	if ref.Level == 0 {
		return ref.Module, true
	}

	var base []string
	if origin.Kind == catalog.KindRegularPackage {
		base = origin.ID.Parts()
	} else {
		base = origin.Parent.Parts()
	}
	for step := 1; step < ref.Level; step++ {
		if len(base) == 0 {
			return nil, false
		}
		base = base[:len(base)-1]
	}

	return append(append([]string{}, base...), ref.Module...), true
}

// relativeFromTargets resolves a relative from-import. When the reference
// names a module path after the dots, that path is always imported in
// addition to the individual names; names that are plain attributes simply
// resolve to nothing.
func (r *Resolver) relativeFromTargets(anchor []string, ref parser.ImportReference) []*catalog.ModuleRecord {
	var out []*catalog.ModuleRecord
	if len(ref.Module) > 0 {
		if rec, ok := r.lookup(anchor); ok {
			out = append(out, rec)
		}
	}
	for _, name := range ref.Names {
		if name == "*" {
			// A star pulls in the module path itself, which is already
			// covered above when present.
			continue
		}
		cand := append(append([]string{}, anchor...), name)
		if rec, ok := r.lookup(cand); ok {
			out = append(out, rec)
		}
	}
	return out
}

// fromImportTargets resolves anchor.name for every imported name of an
// absolute from-import. Names that are plain attributes rather than modules
// do not resolve; when any name fails, the anchor itself is imported too,
// mirroring how the interpreter loads the module that provides the
// attribute.
func (r *Resolver) fromImportTargets(anchor []string, names []string) []*catalog.ModuleRecord {
	var out []*catalog.ModuleRecord
	resolved := 0
	for _, name := range names {
		cand := append(append([]string{}, anchor...), name)
		if rec, ok := r.lookup(cand); ok {
			out = append(out, rec)
			resolved++
		}
	}
	if resolved != len(names) {
		if rec, ok := r.lookup(anchor); ok {
			out = append(out, rec)
		}
	}
	return out
}

// lookup matches dotted segments against the catalog. A trailing star
// collapses to its parent: `from a.b import *` loads a.b itself whether it
// is a package initializer or a plain module.
func (r *Resolver) lookup(segs []string) (*catalog.ModuleRecord, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	if segs[len(segs)-1] == "*" {
		segs = segs[:len(segs)-1]
		if len(segs) == 0 {
			return nil, false
		}
	}
	for _, s := range segs {
		if !catalog.ValidSegment(s) {
			return nil, false
		}
	}
	return r.catalog.Lookup(catalog.JoinParts(segs))
}

// validEdge applies the self-collapsing rules: a module never depends on
// itself, and a module importing its own direct containing package's
// initializer is not a structural dependency. Only the direct parent is
// excluded; importing a grandparent package is a real edge.
func validEdge(origin, target *catalog.ModuleRecord) bool {
	if origin.ID == target.ID {
		return false
	}
	if origin.Kind == catalog.KindModule &&
		target.Kind == catalog.KindRegularPackage &&
		target.ID == origin.Parent {
		return false
	}
	return true
}
