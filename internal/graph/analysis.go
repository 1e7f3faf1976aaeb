package graph

import "sort"

// AllThunks returns every Thunk reachable from root via its input edges,
// in first-visit (pre-order) order. Used by the analyses below, and by the
// scheduler to build its initial state.
func AllThunks(root *Thunk) []*Thunk {
	seen := make(map[*Thunk]bool)
	var out []*Thunk
	var visit func(t *Thunk)
	visit = func(t *Thunk) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
		for _, in := range t.Inputs {
			if it, ok := in.(*Thunk); ok {
				visit(it)
			}
		}
	}
	visit(root)
	return out
}

// Dependents computes, for every node reachable from root (Thunks and
// non-Thunk leaves alike), the set of Thunks that list it among their
// inputs. Leaves get entries too, so the scheduler's reference counter can
// track their consumers.
func Dependents(root *Thunk) map[any][]*Thunk {
	deps := make(map[any][]*Thunk)
	seen := make(map[*Thunk]bool)
	var visit func(t *Thunk)
	visit = func(t *Thunk) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		for _, in := range t.Inputs {
			deps[in] = append(deps[in], t)
			if it, ok := in.(*Thunk); ok {
				visit(it)
			}
		}
	}
	visit(root)
	return deps
}

// OffspringCounts computes, for every Thunk reachable from root, the total
// number of transitively dependent Thunks (i.e. the size of the set of
// nodes that, directly or indirectly, need this node's result). Used as a
// branch-priority heuristic by TotalOrder.
func OffspringCounts(root *Thunk) map[*Thunk]int {
	dependents := Dependents(root)
	nodes := AllThunks(root)
	counts := make(map[*Thunk]int, len(nodes))
	for _, n := range nodes {
		seen := make(map[*Thunk]bool)
		var walk func(x *Thunk)
		walk = func(x *Thunk) {
			for _, d := range dependents[any(x)] {
				if !seen[d] {
					seen[d] = true
					walk(d)
				}
			}
		}
		walk(n)
		counts[n] = len(seen)
	}
	return counts
}

// TotalOrder returns a DFS pre-order numbering starting at root in which,
// at each node, children are visited sorted by ascending offspring count
// (ties broken by NodeID for determinism). The order is numeric; smaller
// numbers are closer to the root. Priority is the scheduler's tie-break
// score, -order[n], so that higher priority means closer to the root.
func TotalOrder(root *Thunk) (order map[*Thunk]int, priority map[*Thunk]int) {
	offspring := OffspringCounts(root)
	order = make(map[*Thunk]int)
	visited := make(map[*Thunk]bool)
	next := 0

	var visit func(t *Thunk)
	visit = func(t *Thunk) {
		if t == nil || visited[t] {
			return
		}
		visited[t] = true
		order[t] = next
		next++

		children := t.ThunkInputs()
		sort.Slice(children, func(i, j int) bool {
			oi, oj := offspring[children[i]], offspring[children[j]]
			if oi != oj {
				return oi < oj
			}
			return children[i].ID < children[j].ID
		})
		for _, c := range children {
			visit(c)
		}
	}
	visit(root)

	priority = make(map[*Thunk]int, len(order))
	for t, o := range order {
		priority[t] = -o
	}
	return order, priority
}

// DetectCycle walks the input relation looking for a back-edge. The input
// relation is documented as acyclic (graph.md §3 invariants); this is an
// assertion used by the scheduler at initialization, not a tolerated path.
func DetectCycle(root *Thunk) []NodeID {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[*Thunk]int)
	var path []*Thunk
	var cycle []NodeID

	var dfs func(t *Thunk) bool
	dfs = func(t *Thunk) bool {
		color[t] = gray
		path = append(path, t)
		for _, in := range t.Inputs {
			it, ok := in.(*Thunk)
			if !ok {
				continue
			}
			switch color[it] {
			case white:
				if dfs(it) {
					return true
				}
			case gray:
				for i := len(path) - 1; i >= 0; i-- {
					cycle = append(cycle, path[i].ID)
					if path[i] == it {
						break
					}
				}
				return true
			}
		}
		path = path[:len(path)-1]
		color[t] = black
		return false
	}
	dfs(root)
	return cycle
}
