package cycles

import (
	"sort"

	"pycycles/internal/catalog"
)

// stronglyConnected computes the strongly connected components of the graph
// spanned by nodes. Tarjan's algorithm with an explicit frame stack, so deep
// module chains cannot exhaust the goroutine stack. Nodes are visited in the
// given order and neighbors in the order the callback yields them, which
// keeps the component list deterministic.
func stronglyConnected(nodes []catalog.ModuleID, neighbors func(catalog.ModuleID) []catalog.ModuleID) [][]catalog.ModuleID {
	type frame struct {
		node catalog.ModuleID
		nbrs []catalog.ModuleID
		next int
	}

	index := make(map[catalog.ModuleID]int, len(nodes))
	lowlink := make(map[catalog.ModuleID]int, len(nodes))
	onStack := make(map[catalog.ModuleID]bool, len(nodes))
	var stack []catalog.ModuleID
	var sccs [][]catalog.ModuleID
	counter := 0

	visit := func(root catalog.ModuleID) {
		frames := []frame{{node: root, nbrs: neighbors(root)}}
		index[root] = counter
		lowlink[root] = counter
		counter++
		stack = append(stack, root)
		onStack[root] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]

			if f.next < len(f.nbrs) {
				w := f.nbrs[f.next]
				f.next++
				if _, seen := index[w]; !seen {
					index[w] = counter
					lowlink[w] = counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					frames = append(frames, frame{node: w, nbrs: neighbors(w)})
				} else if onStack[w] && index[w] < lowlink[f.node] {
					lowlink[f.node] = index[w]
				}
				continue
			}

			if lowlink[f.node] == index[f.node] {
				var scc []catalog.ModuleID
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == f.node {
						break
					}
				}
				sccs = append(sccs, scc)
			}

			done := f.node
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlink[done] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[done]
				}
			}
		}
	}

	for _, n := range nodes {
		if _, seen := index[n]; !seen {
			visit(n)
		}
	}
	return sccs
}

// detectTarjan reports each strongly connected component of two or more
// modules as one cycle group, members sorted. It names the modules that are
// mutually entangled without enumerating the individual loops between them.
func detectTarjan(nodes []catalog.ModuleID, neighbors func(catalog.ModuleID) []catalog.ModuleID) []Cycle {
	var out []Cycle
	for _, scc := range stronglyConnected(nodes, neighbors) {
		if len(scc) < 2 {
			continue
		}
		members := make(Cycle, len(scc))
		copy(members, scc)
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		out = append(out, members)
	}
	return out
}
