// Package graph defines the data model of the dataflow scheduler: the
// deferred Computation tree a caller builds, the AbstractChunk handles that
// describe data living on workers, and the Thunk DAG a Context stages those
// computations into.
//
// Computation/Thunk/Chunk/Cat form the (mostly) immutable identity layer;
// Context is the ambient, per-run configuration that staging and scheduling
// close over, and also owns the weak-keyed memoization cache that makes
// CachedStage idempotent per Context.
package graph
