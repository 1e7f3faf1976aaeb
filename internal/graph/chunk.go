package graph

// WorkerID names a worker process in a Context's pool.
type WorkerID string

// ChunkID is a process-wide unique identifier for a materialized Chunk.
type ChunkID uint64

// Affinity records a worker's preference weight for holding or computing a
// value. The current selector (scheduler.selectForWorker) only checks
// presence, but weight is carried as first-class data for future policies.
type Affinity struct {
	Worker WorkerID
	Weight float64
}

// AbstractChunk is a handle to data living on some worker (or a view/
// aggregate composed from such handles).
type AbstractChunk interface {
	// Affinity reports the worker(s) that hold (or would prefer to hold)
	// this chunk's data.
	Affinity() []Affinity
}

// Chunk is a single-worker materialized datum.
type Chunk struct {
	ID        ChunkID
	Worker    WorkerID
	Persisted bool
}

func (c *Chunk) Affinity() []Affinity {
	if c == nil {
		return nil
	}
	return []Affinity{{Worker: c.Worker, Weight: 1}}
}

// View is a slice of another chunk; it has no independent storage and
// inherits its base's affinity.
type View struct {
	Base   AbstractChunk
	Offset int
	Length int
}

func (v *View) Affinity() []Affinity {
	if v == nil || v.Base == nil {
		return nil
	}
	return v.Base.Affinity()
}

// Extent is the inclusive-exclusive range of one axis of a Cat's domain.
type Extent struct {
	Lo, Hi int
}

// Cat is a structured aggregate of chunks arranged in an N-dimensional
// grid. Domain gives the extent of each axis; ChunkSizes gives, per axis,
// the size of each chunk along that axis; Cells holds the grid's elements
// in row-major order, each either an AbstractChunk (resolved) or a *Thunk
// (deferred). A Cat containing any *Thunk cell is itself deferred.
type Cat struct {
	Domain     []Extent
	ChunkSizes [][]int
	ChunkType  string
	Cells      []any
}

func (c *Cat) Affinity() []Affinity {
	if c == nil {
		return nil
	}
	var out []Affinity
	for _, cell := range c.Cells {
		out = append(out, InputAffinity(cell)...)
	}
	return out
}

// IsDeferred reports whether any cell of the Cat is still a *Thunk.
func (c *Cat) IsDeferred() bool {
	for _, cell := range c.Cells {
		if _, ok := cell.(*Thunk); ok {
			return true
		}
	}
	return false
}

// InputAffinity computes the affinity contribution of a single Thunk input:
// a *Thunk's own (derived) affinity, an AbstractChunk's affinity, or no
// affinity at all for a plain value.
func InputAffinity(x any) []Affinity {
	switch v := x.(type) {
	case *Thunk:
		return v.Affinity()
	case AbstractChunk:
		return v.Affinity()
	default:
		return nil
	}
}
