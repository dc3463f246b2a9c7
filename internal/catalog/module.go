package catalog

import "strings"

// ModuleID is the fully-qualified, dot-separated identifier of a discovered
// module or package. It is the graph's identity; file paths are carried only
// for diagnostics and never used for equality.
type ModuleID string

func JoinParts(parts []string) ModuleID {
	return ModuleID(strings.Join(parts, "."))
}

func (m ModuleID) Parts() []string {
	if m == "" {
		return nil
	}
	return strings.Split(string(m), ".")
}

// Parent returns the containing package identifier, or "" for a top-level
// module.
func (m ModuleID) Parent() ModuleID {
	idx := strings.LastIndex(string(m), ".")
	if idx < 0 {
		return ""
	}
	return m[:idx]
}

func (m ModuleID) Join(parts ...string) ModuleID {
	segs := append(m.Parts(), parts...)
	return JoinParts(segs)
}

func (m ModuleID) String() string {
	return string(m)
}

type ModuleKind int

const (
	KindModule ModuleKind = iota
	KindRegularPackage
	KindNamespacePackage
)

func (k ModuleKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindRegularPackage:
		return "regular-package"
	case KindNamespacePackage:
		return "namespace-package"
	default:
		return "unknown"
	}
}

// ModuleRecord describes one discovered module. For regular packages Path is
// the initializer file; for namespace packages it is the directory itself.
// Records are immutable once the catalog is built.
type ModuleRecord struct {
	ID     ModuleID
	Path   string
	Kind   ModuleKind
	Parent ModuleID
}

// HasSource reports whether the record maps to a parseable source file.
// Namespace packages are directories and contribute no references.
func (r *ModuleRecord) HasSource() bool {
	return r.Kind != KindNamespacePackage
}

// ValidSegment reports whether a name can appear as one dotted-identifier
// segment: a leading letter or underscore followed by letters, digits or
// underscores.
func ValidSegment(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
