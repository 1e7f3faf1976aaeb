package scheduler

import "loom/internal/graph"

// thunkSet is a small set-of-Thunk-pointers helper; the scheduler's state
// dictionaries are plain maps precisely so the whole state machine can run
// single-threaded with no locks (see the concurrency model).
type thunkSet map[*graph.Thunk]struct{}

func (s thunkSet) remove(t *graph.Thunk) { delete(s, t) }
func (s thunkSet) empty() bool           { return len(s) == 0 }

// State is the scheduler's mutable runtime state for one compute run,
// rooted at a single target Thunk.
type State struct {
	root *graph.Thunk

	dependents map[any][]*graph.Thunk
	priority   map[*graph.Thunk]int

	waiting     map[*graph.Thunk]thunkSet
	waitingData map[any]thunkSet

	ready   []*graph.Thunk
	running thunkSet

	cache map[any]any

	finished *graph.Thunk
}

// NewState initializes the scheduler state machine for root: computes the
// dependents map and priority order, seeds the initial waiting sets from
// each Thunk's Thunk-inputs, and populates `ready` with every Thunk that
// already has none.
//
// DetectCycle is run first as an assertion: the input relation is
// documented as acyclic, and a cycle here is a structural error, not a
// tolerated condition.
func NewState(root *graph.Thunk) (*State, error) {
	if cyc := graph.DetectCycle(root); len(cyc) > 0 {
		return nil, &StructuralError{Message: "cycle detected in thunk graph"}
	}

	dependents := graph.Dependents(root)
	_, priority := graph.TotalOrder(root)

	s := &State{
		root:        root,
		dependents:  dependents,
		priority:    priority,
		waiting:     make(map[*graph.Thunk]thunkSet),
		waitingData: make(map[any]thunkSet),
		running:     make(thunkSet),
		cache:       make(map[any]any),
	}

	for node, deps := range dependents {
		set := make(thunkSet, len(deps))
		for _, d := range deps {
			set[d] = struct{}{}
		}
		s.waitingData[node] = set
	}

	for _, t := range graph.AllThunks(root) {
		inputs := t.ThunkInputs()
		if len(inputs) == 0 {
			s.ready = append(s.ready, t)
			continue
		}
		set := make(thunkSet, len(inputs))
		for _, in := range inputs {
			set[in] = struct{}{}
		}
		s.waiting[t] = set
	}

	return s, nil
}

// Done reports termination: waiting, ready, and running are all empty.
func (s *State) Done() bool {
	return len(s.waiting) == 0 && len(s.ready) == 0 && len(s.running) == 0
}

// Result returns the cached result for the run's root target.
func (s *State) Result() (any, bool) {
	v, ok := s.cache[any(s.root)]
	return v, ok
}

// popReady removes and returns the Thunk at index i of the ready slice.
func (s *State) popReady(i int) *graph.Thunk {
	t := s.ready[i]
	s.ready = append(s.ready[:i], s.ready[i+1:]...)
	return t
}
