package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"pycycles/internal/errors"
	"pycycles/internal/util"
)

// Conventions are the file-system naming rules the catalog applies. They are
// constructor inputs rather than package constants so the engine can be
// exercised against synthetic trees.
type Conventions struct {
	InitFile    string
	Extension   string
	ExcludeDirs []string
}

func DefaultConventions() Conventions {
	return Conventions{
		InitFile:    "__init__.py",
		Extension:   ".py",
		ExcludeDirs: []string{"__pycache__", ".*"},
	}
}

// Catalog holds every ModuleRecord discovered beneath the configured roots.
type Catalog struct {
	records map[ModuleID]*ModuleRecord
	ids     []ModuleID
}

// Discover walks the given package roots and builds the complete catalog.
// A missing or non-directory root is a configuration error; an empty
// directory is a valid zero-module outcome.
func Discover(roots []string, conv Conventions) (*Catalog, error) {
	excludes, err := util.CompileGlobs(conv.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "invalid exclude patterns")
	}

	c := &Catalog{records: make(map[ModuleID]*ModuleRecord)}

	for _, root := range util.UniqueRoots(roots) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "no such directory"), errors.CtxRoot, root)
		}
		if !info.IsDir() {
			return nil, errors.AddContext(errors.New(errors.CodeConfiguration, "package root is not a directory"), errors.CtxRoot, root)
		}
		if err := c.walkRoot(root, conv, excludes); err != nil {
			return nil, err
		}
	}

	c.ids = make([]ModuleID, 0, len(c.records))
	for id := range c.records {
		c.ids = append(c.ids, id)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })

	return c, nil
}

func (c *Catalog) walkRoot(root string, conv Conventions, excludes []glob.Glob) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, g := range excludes {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			parts, ok := relParts(root, path)
			if !ok {
				slog.Debug("skipping directory with invalid identifier segments", "path", path)
				return filepath.SkipDir
			}

			rec := &ModuleRecord{
				ID:     JoinParts(parts),
				Path:   path,
				Kind:   KindNamespacePackage,
				Parent: JoinParts(parts).Parent(),
			}
			if init := filepath.Join(path, conv.InitFile); fileExists(init) {
				rec.Kind = KindRegularPackage
				rec.Path = init
			}
			return c.add(rec)
		}

		if base == conv.InitFile {
			// Collapsed into the containing package record, except at the
			// root itself where there is no package to collapse into.
			return nil
		}
		if filepath.Ext(base) != conv.Extension {
			return nil
		}

		dirParts, ok := relParts(root, filepath.Dir(path))
		if !ok {
			return nil
		}
		stem := strings.TrimSuffix(base, conv.Extension)
		if !ValidSegment(stem) {
			slog.Debug("skipping file with invalid module name", "path", path)
			return nil
		}

		id := JoinParts(append(dirParts, stem))
		return c.add(&ModuleRecord{
			ID:     id,
			Path:   path,
			Kind:   KindModule,
			Parent: id.Parent(),
		})
	})
}

func (c *Catalog) add(rec *ModuleRecord) error {
	if existing, ok := c.records[rec.ID]; ok {
		if existing.Path == rec.Path {
			return nil
		}
		return errors.New(errors.CodeConfiguration,
			fmt.Sprintf("module identifier %q maps to both %s and %s", rec.ID, existing.Path, rec.Path))
	}
	c.records[rec.ID] = rec
	return nil
}

// relParts converts a path beneath root into identifier segments. The root
// itself maps to zero segments.
func relParts(root, path string) ([]string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, false
	}
	if rel == "." {
		return nil, true
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	for _, p := range parts {
		if !ValidSegment(p) {
			return nil, false
		}
	}
	return parts, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Lookup returns the record for a fully-qualified identifier.
func (c *Catalog) Lookup(id ModuleID) (*ModuleRecord, bool) {
	rec, ok := c.records[id]
	return rec, ok
}

// Records returns all records sorted by ModuleID, so downstream stages are
// deterministic regardless of traversal order.
func (c *Catalog) Records() []*ModuleRecord {
	out := make([]*ModuleRecord, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.records[id])
	}
	return out
}

// ParseTargets returns the records that map to parseable source files, in
// ModuleID order.
func (c *Catalog) ParseTargets() []*ModuleRecord {
	out := make([]*ModuleRecord, 0, len(c.ids))
	for _, id := range c.ids {
		if rec := c.records[id]; rec.HasSource() {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.records)
}
