package scheduler

import "loom/internal/graph"

// selectForWorker implements affinity-aware selection with the priority
// tie-break law: among every ready Thunk eligible for worker in a given
// pass, the one with the smallest TotalOrder index (i.e. highest
// priority) is chosen, not merely the most recently added one.
//
//  1. First pass: the highest-priority Thunk for which worker appears in
//     the affinity of any input.
//  2. Second pass: the highest-priority Thunk that either has no affinity
//     at all, or is orphaned (no currently-live worker matches its
//     affinity).
//  3. Otherwise return ok=false — worker should idle this cycle.
func selectForWorker(ready []*graph.Thunk, worker graph.WorkerID, live map[graph.WorkerID]bool, priority map[*graph.Thunk]int) (idx int, ok bool) {
	if idx, ok := bestByPriority(ready, priority, func(t *graph.Thunk) bool { return affine(t, worker) }); ok {
		return idx, true
	}
	if idx, ok := bestByPriority(ready, priority, func(t *graph.Thunk) bool { return orphaned(t, live) }); ok {
		return idx, true
	}
	return 0, false
}

// bestByPriority returns the index of the highest-priority ready Thunk
// satisfying pred, or ok=false if none qualify.
func bestByPriority(ready []*graph.Thunk, priority map[*graph.Thunk]int, pred func(*graph.Thunk) bool) (idx int, ok bool) {
	best := -1
	for i, t := range ready {
		if !pred(t) {
			continue
		}
		if best < 0 || priority[t] > priority[ready[best]] {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

func affine(t *graph.Thunk, worker graph.WorkerID) bool {
	for _, a := range t.Affinity() {
		if a.Worker == worker {
			return true
		}
	}
	return false
}

func orphaned(t *graph.Thunk, live map[graph.WorkerID]bool) bool {
	aff := t.Affinity()
	if len(aff) == 0 {
		return true
	}
	for _, a := range aff {
		if live[a.Worker] {
			return false
		}
	}
	return true
}
