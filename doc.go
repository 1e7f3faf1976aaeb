// Package loom is a distributed dataflow scheduler: callers build a tree of
// Computations, loom stages it into a Thunk DAG (memoized per Context), and
// a single-threaded master dispatches ready Thunks to a worker pool,
// respecting data affinity and short-circuiting persisted results that a
// worker still has cached.
//
// The package-level Compute/Gather/Cached/Free functions operate against a
// lazily constructed default Environment; ComputeWith/GatherWith take an
// explicit one for callers that need their own worker pool or Context.
package loom
