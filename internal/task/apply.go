package task

import (
	"fmt"
	"sync"

	"loom/internal/graph"
)

// Func is a named unit of work an Apply computation invokes against its
// staged arguments.
type Func func(args ...any) (any, error)

var registry = struct {
	mu    sync.RWMutex
	funcs map[string]Func
}{funcs: make(map[string]Func)}

// Register installs fn under name so Apply computations — including ones
// loaded from a graph file, where a closure can't survive serialization —
// can reference it.
func Register(name string, fn Func) {
	if name == "" {
		panic("task: Register: empty name")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.funcs[name] = fn
}

func lookup(name string) (Func, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	fn, ok := registry.funcs[name]
	if !ok {
		return nil, fmt.Errorf("task: no function registered under name %q", name)
	}
	return fn, nil
}

// Computation applies a registered Func to a sequence of argument
// Computations. It is the "leaf computation" variant named in the design
// notes: the only Computation kind a caller uses to introduce actual work,
// as opposed to the structural combinators (Tuple, Cached, Computed).
type Computation struct {
	Name      string
	Args      []graph.Computation
	Persist   bool
	GetResult bool
}

// Apply returns a Computation that invokes the Func registered under name
// with the results of args.
func Apply(name string, args ...graph.Computation) *Computation {
	return &Computation{Name: name, Args: args}
}

// Persisted marks c's produced chunk so workers won't reclaim it on their
// own initiative.
func (c *Computation) Persisted() *Computation {
	c.Persist = true
	return c
}

// AsResult marks c so the worker returns the raw computed value rather
// than a chunk handle — for terminal computations whose result a caller
// wants to gather directly.
func (c *Computation) AsResult() *Computation {
	c.GetResult = true
	return c
}

func (*Computation) Kind() string { return "apply" }

// Literal is a leaf Computation whose result is a fixed, already-known
// value — the base case for building a Computation tree out of constants
// (e.g. when a graph file's node argument isn't a reference to another
// node).
type Literal struct {
	Value any
}

// Const wraps v as a Literal Computation.
func Const(v any) *Literal { return &Literal{Value: v} }

func (*Literal) Kind() string { return "literal" }

func init() {
	graph.RegisterComputationKind("apply", stage, nil)
	graph.RegisterComputationKind("literal", stageLiteral, nil)
}

func stageLiteral(_ *graph.Context, c graph.Computation) (any, error) {
	return c.(*Literal).Value, nil
}

func stage(ctx *graph.Context, gc graph.Computation) (any, error) {
	c := gc.(*Computation)
	fn, err := lookup(c.Name)
	if err != nil {
		return nil, err
	}

	inputs := make([]any, 0, len(c.Args))
	for _, a := range c.Args {
		staged, err := graph.CachedStage(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("staging apply %q argument: %w", c.Name, err)
		}
		resolved, err := graph.Thunkize(ctx, staged)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, resolved)
	}

	return &graph.Thunk{
		ID:        ctx.NextNodeID(),
		F:         graph.Fn(fn),
		Inputs:    inputs,
		Persist:   c.Persist,
		GetResult: c.GetResult,
	}, nil
}
