package cycles

import (
	"fmt"
	"sort"
	"strings"

	"pycycles/internal/catalog"
)

// Cycle is one import cycle, stored in traversal order. Two cycles that are
// rotations of each other describe the same loop, so identity is defined on
// the canonical rotation.
type Cycle []catalog.ModuleID

// canonical rotates the cycle so its smallest member comes first. The
// traversal order is preserved, only the starting point moves.
func (c Cycle) canonical() Cycle {
	if len(c) == 0 {
		return c
	}
	min := 0
	for i, id := range c {
		if id < c[min] {
			min = i
		}
	}
	out := make(Cycle, 0, len(c))
	out = append(out, c[min:]...)
	out = append(out, c[:min]...)
	return out
}

func (c Cycle) key() string {
	parts := make([]string, len(c))
	for i, id := range c {
		parts[i] = string(id)
	}
	return strings.Join(parts, "\x00")
}

// String renders the cycle as "[a, b, c]".
func (c Cycle) String() string {
	parts := make([]string, len(c))
	for i, id := range c {
		parts[i] = string(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Report is the outcome of one detection run. Cycles are canonicalized,
// deduplicated and sorted by length then members, so repeated runs over the
// same graph produce identical reports.
type Report struct {
	Strategy Strategy
	Cycles   []Cycle
	Complete bool
}

func newReport(strategy Strategy, raw []Cycle, complete bool) *Report {
	seen := make(map[string]struct{}, len(raw))
	cycles := make([]Cycle, 0, len(raw))
	for _, c := range raw {
		canon := c.canonical()
		k := canon.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cycles = append(cycles, canon)
	}

	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i], cycles[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	return &Report{Strategy: strategy, Cycles: cycles, Complete: complete}
}

// Summary is the one-line result every output surface prints.
func (r *Report) Summary() string {
	return fmt.Sprintf("Found %d import cycles", len(r.Cycles))
}
