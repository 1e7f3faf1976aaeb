// Package stager is the public staging entry point: it turns a
// graph.Computation into a graph.Thunk (or chunk, or plain value) and,
// through graph.CachedStage, guarantees that staging the same Computation
// twice under the same Context returns the identical node. The actual
// dispatch table and memoization cache live in package graph — composite
// Computations (tuple, cached) need to recurse through the memoized path
// too, so the cache can't live one layer up without losing memoization on
// shared sub-expressions. This package is the stable name callers use.
package stager
