package lifetime

import (
	"fmt"

	"loom/internal/graph"
	"loom/internal/worker"
)

// Persist marks chunk as pinned on its owning worker: frees with
// force=false become no-ops from then on.
func Persist(reg *worker.Registry, chunk *graph.Chunk) error {
	w, err := reg.Get(chunk.Worker)
	if err != nil {
		return fmt.Errorf("lifetime: persist: %w", err)
	}
	w.Store.Persist(chunk.ID)
	chunk.Persisted = true
	return nil
}

// Free releases chunk's worker-side storage. When cache is true the
// storage is moved to the worker's keep-alive registry instead of being
// discarded, so a future scheduler run can unrelease it via the cache-hit
// short circuit.
func Free(reg *worker.Registry, chunk *graph.Chunk, force, cache bool) error {
	w, err := reg.Get(chunk.Worker)
	if err != nil {
		return fmt.Errorf("lifetime: free: %w", err)
	}
	w.Store.Free(chunk.ID, force, cache)
	return nil
}
