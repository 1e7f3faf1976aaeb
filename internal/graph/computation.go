package graph

import (
	"fmt"
	"sync"
)

// Computation is an opaque, possibly-deferred description of a value.
//
// New variants are added by registering a stage function under a stable
// Kind string rather than by satisfying a larger interface — a tagged
// dispatch table in place of a type-switch over concrete Computation
// types.
type Computation interface {
	// Kind returns the stable tag used to look up this Computation's
	// stage (and optional affinity) function in the registry.
	Kind() string
}

// StageFunc turns a Computation into a Thunk, an AbstractChunk, or a plain
// value. Implementations must be referentially transparent: staging the
// same Computation twice under the same Context must return the identical
// node (see stager.CachedStage, which provides this on top of StageFunc).
type StageFunc func(ctx *Context, c Computation) (any, error)

// AffinityFunc optionally overrides the default affinity derivation (the
// concatenation of a Computation's inputs' affinities) for a Kind.
type AffinityFunc func(c Computation) []Affinity

var registry = struct {
	mu       sync.RWMutex
	stage    map[string]StageFunc
	affinity map[string]AffinityFunc
}{
	stage:    make(map[string]StageFunc),
	affinity: make(map[string]AffinityFunc),
}

// RegisterComputationKind installs a Computation variant's stage function
// (and optional affinity override) into the dispatch table. It is the
// stager's sole extension point: plug-ins never need to modify the stager
// itself, only call this at init time.
func RegisterComputationKind(kind string, stage StageFunc, affinity AffinityFunc) {
	if kind == "" {
		panic("graph: RegisterComputationKind: empty kind")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.stage[kind] = stage
	if affinity != nil {
		registry.affinity[kind] = affinity
	}
}

// LookupStage returns the registered StageFunc for a Computation's kind.
func LookupStage(c Computation) (StageFunc, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	fn, ok := registry.stage[c.Kind()]
	if !ok {
		return nil, fmt.Errorf("graph: no stage function registered for kind %q", c.Kind())
	}
	return fn, nil
}

// LookupAffinity returns a Kind's affinity override, if one was registered.
func LookupAffinity(c Computation) (AffinityFunc, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	fn, ok := registry.affinity[c.Kind()]
	return fn, ok
}

// TupleComputation's result is the tuple of its items' results.
type TupleComputation struct {
	Items []Computation
}

func (*TupleComputation) Kind() string { return "tuple" }

// CachedComputation marks its inner Computation's result to be retained
// (persisted) after first use, rather than freed once consumed.
type CachedComputation struct {
	Inner Computation
}

func (*CachedComputation) Kind() string { return "cached" }

// ComputedComputation wraps an already-materialized AbstractChunk so it can
// participate in a larger Computation tree as a leaf.
type ComputedComputation struct {
	Chunk AbstractChunk
}

func (*ComputedComputation) Kind() string { return "computed" }

func init() {
	RegisterComputationKind("tuple", stageTuple, nil)
	RegisterComputationKind("cached", stageCached, nil)
	RegisterComputationKind("computed", stageComputed, nil)
}

func stageTuple(ctx *Context, c Computation) (any, error) {
	t := c.(*TupleComputation)
	inputs := make([]any, 0, len(t.Items))
	for _, item := range t.Items {
		staged, err := CachedStage(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("staging tuple item: %w", err)
		}
		resolved, err := Thunkize(ctx, staged)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, resolved)
	}
	th := &Thunk{
		ID: ctx.NextNodeID(),
		F: func(args ...any) (any, error) {
			out := make([]any, len(args))
			copy(out, args)
			return out, nil
		},
		Inputs: inputs,
	}
	return th, nil
}

func stageCached(ctx *Context, c Computation) (any, error) {
	cc := c.(*CachedComputation)
	staged, err := CachedStage(ctx, cc.Inner)
	if err != nil {
		return nil, fmt.Errorf("staging cached computation: %w", err)
	}
	resolved, err := Thunkize(ctx, staged)
	if err != nil {
		return nil, err
	}
	th, ok := resolved.(*Thunk)
	if !ok {
		// A leaf Computation staged straight to a plain value or Chunk; wrap
		// it so "cached" still has a Thunk to mark Cache=true on.
		v := resolved
		th = &Thunk{
			ID: ctx.NextNodeID(),
			F:  func(args ...any) (any, error) { return v, nil },
		}
	}
	th.Cache = true
	return th, nil
}

func stageComputed(_ *Context, c Computation) (any, error) {
	return c.(*ComputedComputation).Chunk, nil
}

// Stage is the package-level dispatcher: it looks up c's registered stage
// function and invokes it, unmemoized. Callers — including this package's
// own composite stage functions — normally go through CachedStage instead,
// which memoizes on top of this per Context.
func Stage(ctx *Context, c Computation) (any, error) {
	fn, err := LookupStage(c)
	if err != nil {
		return nil, err
	}
	return fn(ctx, c)
}

// Thunkize returns x unchanged for a plain Chunk/Thunk/value; for a Cat
// containing any Thunk, it fuses the whole grid into a single meta Thunk
// that rebuilds a resolved Cat once every cell has a value.
func Thunkize(ctx *Context, x any) (any, error) {
	cat, ok := x.(*Cat)
	if !ok || !cat.IsDeferred() {
		return x, nil
	}

	inputs := make([]any, len(cat.Cells))
	copy(inputs, cat.Cells)

	domain := cat.Domain
	chunkSizes := cat.ChunkSizes
	chunkType := cat.ChunkType

	th := &Thunk{
		ID:   ctx.NextNodeID(),
		Meta: true,
		F: func(args ...any) (any, error) {
			cells := make([]any, len(args))
			copy(cells, args)
			return &Cat{Domain: domain, ChunkSizes: chunkSizes, ChunkType: chunkType, Cells: cells}, nil
		},
		Inputs: inputs,
	}
	return th, nil
}
