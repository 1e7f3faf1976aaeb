package graph

// NodeID is a globally unique, monotonically assigned Thunk identifier. It
// determines tie-break ordering among otherwise equal dispatch candidates,
// so assignment order must match construction order within a Context.
type NodeID uint64

// Fn is the function a Thunk invokes once its inputs are available. For a
// meta Thunk it receives the inputs exactly as staged (no data movement);
// for a worker-bound Thunk it receives the fetched values a worker moved
// locally.
type Fn func(args ...any) (any, error)

// Thunk is a node in the executable DAG.
type Thunk struct {
	ID NodeID
	F  Fn

	// Inputs is the ordered sequence of values this Thunk depends on. Each
	// element is either another *Thunk or a non-deferred value (an
	// AbstractChunk or a plain datum).
	Inputs []any

	// Cache marks the result to be retained and re-used across compute
	// invocations.
	Cache    bool
	CacheRef AbstractChunk

	// Meta marks the function to run on the master rather than a worker;
	// inputs are received as-is, with no data movement.
	Meta bool

	// GetResult marks that the worker should return the raw computed value
	// rather than wrapping it in a chunk handle.
	GetResult bool

	// Persist marks the produced chunk so workers will not reclaim it on
	// their own.
	Persist bool
}

// Affinity is the concatenation of the affinities of a Thunk's inputs.
func (t *Thunk) Affinity() []Affinity {
	if t == nil {
		return nil
	}
	var out []Affinity
	for _, in := range t.Inputs {
		out = append(out, InputAffinity(in)...)
	}
	return out
}

// ThunkInputs returns the subset of a Thunk's inputs that are themselves
// Thunks, in input order.
func (t *Thunk) ThunkInputs() []*Thunk {
	out := make([]*Thunk, 0, len(t.Inputs))
	for _, in := range t.Inputs {
		if it, ok := in.(*Thunk); ok {
			out = append(out, it)
		}
	}
	return out
}
