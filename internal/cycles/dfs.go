package cycles

import "pycycles/internal/catalog"

// detectDFS finds cycles by collecting back edges during one depth-first
// sweep. Every module that participates in a cycle is flagged through at
// least one reported cycle, but overlapping loops sharing visited nodes may
// be folded into a single finding; the johnson strategy is the exact one.
func detectDFS(nodes []catalog.ModuleID, neighbors func(catalog.ModuleID) []catalog.ModuleID) []Cycle {
	visited := make(map[catalog.ModuleID]bool, len(nodes))
	onPath := make(map[catalog.ModuleID]bool, len(nodes))
	var cycles []Cycle

	var walk func(node catalog.ModuleID, path Cycle)
	walk = func(node catalog.ModuleID, path Cycle) {
		visited[node] = true
		onPath[node] = true
		path = append(path, node)

		for _, next := range neighbors(node) {
			if onPath[next] {
				for i, m := range path {
					if m == next {
						cycle := make(Cycle, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
				continue
			}
			if !visited[next] {
				walk(next, path)
			}
		}

		onPath[node] = false
	}

	for _, n := range nodes {
		if !visited[n] {
			walk(n, nil)
		}
	}
	return cycles
}
