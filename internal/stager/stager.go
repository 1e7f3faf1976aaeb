package stager

import "loom/internal/graph"

// Stage is the memoized staging entry point: stage(ctx, c) == stage(ctx, c)
// for any two calls under the same Context. It is a thin alias for
// graph.CachedStage; see that function for the memoization mechanics.
func Stage(ctx *graph.Context, c graph.Computation) (any, error) {
	return graph.CachedStage(ctx, c)
}

// CachedStage is an explicit alias for Stage, kept as a distinct name
// because callers that already hold a staged value sometimes want to make
// the memoized re-entry visible at the call site (e.g. when staging a
// CachedComputation's inner value a second time from a different branch).
func CachedStage(ctx *graph.Context, c graph.Computation) (any, error) {
	return graph.CachedStage(ctx, c)
}

// Thunkize fuses a deferred Cat (one with at least one *graph.Thunk cell)
// into a single meta Thunk that rebuilds the resolved Cat once every
// cell has a value. Plain values, Chunks, and already-resolved Cats pass
// through unchanged.
func Thunkize(ctx *graph.Context, x any) (any, error) {
	return graph.Thunkize(ctx, x)
}
