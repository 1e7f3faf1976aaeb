package lifetime

import (
	"runtime"

	"loom/internal/graph"
	"loom/internal/worker"
)

// Computed is the caller-facing handle a compute() returns: a chunk (or
// plain value) plus enough machinery to free it automatically once the
// caller drops every reference, without ever blocking inside a finalizer.
type Computed struct {
	Value any
	reg   *worker.Registry
	queue *FreeQueue
}

// NewComputed wraps value and, if it is a *graph.Chunk, registers a
// cleanup that frees it once the Computed becomes unreachable. Plain
// values (GetResult Thunks) need no lifetime management at all.
func NewComputed(value any, reg *worker.Registry, queue *FreeQueue) *Computed {
	c := &Computed{Value: value, reg: reg, queue: queue}
	if chunk, ok := value.(*graph.Chunk); ok && !chunk.Persisted {
		runtime.AddCleanup(c, func(ch *graph.Chunk) {
			queue.Enqueue(&chunkFreer{reg: reg, chunk: ch}, true, false)
		}, chunk)
	}
	return c
}

// Persist pins the underlying chunk; a subsequent Free(force=false) then
// becomes a no-op. No-op for plain (non-chunk) values.
func (c *Computed) Persist() error {
	chunk, ok := c.Value.(*graph.Chunk)
	if !ok {
		return nil
	}
	return Persist(c.reg, chunk)
}

// Free explicitly releases the underlying chunk now, ahead of garbage
// collection. No-op for plain (non-chunk) values.
func (c *Computed) Free(force, cache bool) error {
	chunk, ok := c.Value.(*graph.Chunk)
	if !ok {
		return nil
	}
	return Free(c.reg, chunk, force, cache)
}

// chunkFreer adapts a (*worker.Registry, *graph.Chunk) pair to the queue's
// freeable interface.
type chunkFreer struct {
	reg   *worker.Registry
	chunk *graph.Chunk
}

func (f *chunkFreer) doFree(force, cache bool) {
	_ = Free(f.reg, f.chunk, force, cache)
}
