package cycles

import (
	"context"
	"sort"

	"pycycles/internal/catalog"
	"pycycles/internal/errors"
)

// detectJohnson enumerates every elementary cycle using Johnson's algorithm.
// Components are processed one start node at a time with an explicit work
// stack; the context is checked between start nodes, so cancellation yields
// the cycles found so far together with an INCOMPLETE error.
func detectJohnson(ctx context.Context, nodes []catalog.ModuleID, neighbors func(catalog.ModuleID) []catalog.ModuleID) ([]Cycle, error) {
	var cycles []Cycle

	// Worklist of component member sets still to be mined. Each round picks
	// the least member as the start node, enumerates all cycles through it,
	// removes it and re-splits the remainder into components.
	var worklist []map[catalog.ModuleID]bool
	for _, scc := range stronglyConnected(nodes, neighbors) {
		if len(scc) < 2 {
			continue
		}
		worklist = append(worklist, memberSet(scc))
	}

	for len(worklist) > 0 {
		select {
		case <-ctx.Done():
			return cycles, errors.Wrap(ctx.Err(), errors.CodeIncomplete, "cycle enumeration interrupted")
		default:
		}

		component := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		within := func(n catalog.ModuleID) []catalog.ModuleID {
			var out []catalog.ModuleID
			for _, next := range neighbors(n) {
				if component[next] {
					out = append(out, next)
				}
			}
			return out
		}

		start := leastMember(component)
		cycles = append(cycles, circuitsThrough(start, within)...)

		// The start node is exhausted; whatever remains strongly connected
		// without it goes back on the worklist.
		delete(component, start)
		remaining := sortedMembers(component)
		for _, scc := range stronglyConnected(remaining, func(n catalog.ModuleID) []catalog.ModuleID {
			var out []catalog.ModuleID
			for _, next := range neighbors(n) {
				if component[next] {
					out = append(out, next)
				}
			}
			return out
		}) {
			if len(scc) >= 2 {
				worklist = append(worklist, memberSet(scc))
			}
		}
	}

	return cycles, nil
}

// circuitsThrough enumerates every elementary cycle through start inside its
// component. Nodes on the current path are blocked; a node that closed no
// cycle stays blocked until one of its successors unblocks, which is the
// pruning that makes the enumeration output-sensitive.
func circuitsThrough(start catalog.ModuleID, neighbors func(catalog.ModuleID) []catalog.ModuleID) []Cycle {
	type frame struct {
		node catalog.ModuleID
		nbrs []catalog.ModuleID
		next int
	}

	var cycles []Cycle
	path := Cycle{start}
	blocked := map[catalog.ModuleID]bool{start: true}
	closed := map[catalog.ModuleID]bool{}
	blockedOn := map[catalog.ModuleID]map[catalog.ModuleID]bool{}
	stack := []frame{{node: start, nbrs: neighbors(start)}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		descended := false
		for f.next < len(f.nbrs) {
			next := f.nbrs[f.next]
			f.next++

			if next == start {
				cycle := make(Cycle, len(path))
				copy(cycle, path)
				cycles = append(cycles, cycle)
				for _, m := range path {
					closed[m] = true
				}
				continue
			}
			if !blocked[next] {
				path = append(path, next)
				blocked[next] = true
				delete(closed, next)
				stack = append(stack, frame{node: next, nbrs: neighbors(next)})
				descended = true
				break
			}
		}
		if descended {
			continue
		}

		node := f.node
		if closed[node] {
			unblock(node, blocked, blockedOn)
		} else {
			for _, next := range f.nbrs {
				if blockedOn[next] == nil {
					blockedOn[next] = make(map[catalog.ModuleID]bool)
				}
				blockedOn[next][node] = true
			}
		}
		stack = stack[:len(stack)-1]
		path = path[:len(path)-1]
	}

	return cycles
}

func unblock(node catalog.ModuleID, blocked map[catalog.ModuleID]bool, blockedOn map[catalog.ModuleID]map[catalog.ModuleID]bool) {
	pending := []catalog.ModuleID{node}
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if !blocked[n] {
			continue
		}
		delete(blocked, n)
		for waiter := range blockedOn[n] {
			pending = append(pending, waiter)
		}
		delete(blockedOn, n)
	}
}

func memberSet(ids []catalog.ModuleID) map[catalog.ModuleID]bool {
	set := make(map[catalog.ModuleID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func leastMember(set map[catalog.ModuleID]bool) catalog.ModuleID {
	var least catalog.ModuleID
	first := true
	for id := range set {
		if first || id < least {
			least = id
			first = false
		}
	}
	return least
}

func sortedMembers(set map[catalog.ModuleID]bool) []catalog.ModuleID {
	out := make([]catalog.ModuleID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
