package loom

import (
	"context"
	"fmt"

	"loom/internal/graph"
	"loom/internal/lifetime"
	"loom/internal/scheduler"
	"loom/internal/stager"
	"loom/internal/task"
	"loom/internal/telemetry"
	"loom/internal/worker"
)

// Computation is the opaque, possibly-deferred description of a value a
// caller builds up before calling Compute. See internal/graph for the
// built-in variants (Tuple, Cached, Computed) and the registration API new
// variants plug into.
type Computation = graph.Computation

// Tuple returns a Computation whose result is the tuple of its items'
// results.
func Tuple(items ...Computation) Computation {
	return &graph.TupleComputation{Items: items}
}

// Cached marks c's result to be persisted after first computation, so a
// later Compute reusing the same staged Thunk performs no remote work.
func Cached(c Computation) Computation {
	return &graph.CachedComputation{Inner: c}
}

// FromChunk wraps an already-materialized chunk handle as a Computation
// leaf, for composing new Computation trees out of prior results.
func FromChunk(chunk graph.AbstractChunk) Computation {
	return &graph.ComputedComputation{Chunk: chunk}
}

// Apply returns a Computation that invokes the Func registered under name
// against the results of args. RegisterFunc must be called for name before
// the Computation is staged.
func Apply(name string, args ...Computation) Computation {
	return task.Apply(name, args...)
}

// RegisterFunc installs fn so Apply computations can reference it by name.
func RegisterFunc(name string, fn task.Func) {
	task.Register(name, fn)
}

// Const wraps v as a leaf Computation whose result is v itself.
func Const(v any) Computation {
	return task.Const(v)
}

// Compute stages and runs c against the default Environment.
func Compute(c Computation) (*lifetime.Computed, error) {
	return ComputeWith(Default(), c)
}

// ComputeWith stages and runs c against env: stage (memoized per
// env.Ctx), thunkize (fusing any deferred Cat), and if the result is a
// Thunk, drive the scheduler to materialize it.
func ComputeWith(env *Environment, c Computation) (*lifetime.Computed, error) {
	staged, err := stager.Stage(env.Ctx, c)
	if err != nil {
		return nil, fmt.Errorf("loom: staging: %w", err)
	}
	realized, err := stager.Thunkize(env.Ctx, staged)
	if err != nil {
		return nil, fmt.Errorf("loom: thunkizing: %w", err)
	}

	var result any
	if th, ok := realized.(*graph.Thunk); ok {
		result, err = scheduler.Run(context.Background(), env.Ctx, th, env.Transport, env.Recorder, env.Metrics)
		if err != nil {
			return nil, err
		}
	} else {
		result = realized
	}

	return lifetime.NewComputed(result, env.Transport.Registry(), env.Queue), nil
}

// Gather computes c against the default Environment, then materializes the
// result into this process's address space.
func Gather(c Computation) (any, error) {
	return GatherWith(Default(), c)
}

// GatherWith computes c against env, then materializes the result.
func GatherWith(env *Environment, c Computation) (any, error) {
	computed, err := ComputeWith(env, c)
	if err != nil {
		return nil, err
	}
	return gatherValue(env, computed.Value)
}

func gatherValue(env *Environment, v any) (any, error) {
	switch v.(type) {
	case *graph.Chunk, *graph.View, *graph.Cat:
		return worker.Move(env.Transport.Registry(), env.gatherWorker, v)
	default:
		return v, nil
	}
}

// Free explicitly releases computed's underlying storage ahead of garbage
// collection. force overrides a persisted chunk's pin; cache, when true,
// moves the storage to a keep-alive registry instead of discarding it.
func Free(computed *lifetime.Computed, force, cache bool) error {
	return computed.Free(force, cache)
}

// DebugCompute computes c against env and returns the result together with
// a snapshot of env's event recorder: the scheduler decisions (dispatches,
// cache short-circuits, finishes, frees, failures) recorded on env,
// including those of any earlier runs on the same Environment. It
// measures no timing itself.
func DebugCompute(env *Environment, c Computation) (*lifetime.Computed, []telemetry.Event, error) {
	computed, err := ComputeWith(env, c)
	events := env.Recorder.Snapshot()
	if err != nil {
		return nil, events, err
	}
	return computed, events, nil
}
