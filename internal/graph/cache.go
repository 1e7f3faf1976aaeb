package graph

import (
	"runtime"
	"sync"
	"weak"
)

// computationCache is the per-Context memoization table: Computation ->
// staged result (a *Thunk, an AbstractChunk, or a plain value).
type computationCache struct {
	mu   sync.Mutex
	data map[Computation]any
}

var (
	cacheRegistryMu sync.Mutex
	cacheRegistry   = make(map[weak.Pointer[Context]]*computationCache)
)

// cacheFor returns the computationCache for ctx, creating it on first use
// and registering a cleanup that evicts it once ctx becomes unreachable.
// The cache never holds a strong reference to its owning Context, so
// dropping a Context releases its cache promptly instead of leaking it for
// the lifetime of the process.
func cacheFor(ctx *Context) *computationCache {
	wp := weak.Make(ctx)

	cacheRegistryMu.Lock()
	defer cacheRegistryMu.Unlock()

	if c, ok := cacheRegistry[wp]; ok {
		return c
	}
	c := &computationCache{data: make(map[Computation]any)}
	cacheRegistry[wp] = c
	runtime.AddCleanup(ctx, evictCache, wp)
	return c
}

func evictCache(wp weak.Pointer[Context]) {
	cacheRegistryMu.Lock()
	defer cacheRegistryMu.Unlock()
	delete(cacheRegistry, wp)
}

// CachedStage is the memoized form of Stage: on a cache hit it returns the
// previously staged node; on a miss it stages c and remembers the result
// for the lifetime of ctx. Composite Computations (tuple, cached) recurse
// through this function rather than the raw Stage, so memoization applies
// at every level of a Computation tree, not only at the caller's top-level
// Stage call.
func CachedStage(ctx *Context, c Computation) (any, error) {
	cache := cacheFor(ctx)

	cache.mu.Lock()
	if v, ok := cache.data[c]; ok {
		cache.mu.Unlock()
		return v, nil
	}
	cache.mu.Unlock()

	v, err := Stage(ctx, c)
	if err != nil {
		return nil, err
	}

	cache.mu.Lock()
	if existing, ok := cache.data[c]; ok {
		// Another path staged c while we were off computing it (re-entrant
		// staging of a shared sub-expression); keep the first winner so
		// that `stage(ctx, c) == stage(ctx, c)` holds exactly.
		cache.mu.Unlock()
		return existing, nil
	}
	cache.data[c] = v
	cache.mu.Unlock()
	return v, nil
}
