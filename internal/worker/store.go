package worker

import (
	"fmt"
	"sync"

	"loom/internal/graph"
)

// ChunkStore is a worker's local materialized-data storage. Values are kept
// as opaque `any` payloads; the worker that produced a value is the only
// one that can read it directly, everyone else goes through Move.
type ChunkStore struct {
	mu        sync.Mutex
	data      map[graph.ChunkID]any
	persisted map[graph.ChunkID]bool
	keepAlive map[graph.ChunkID]any
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		data:      make(map[graph.ChunkID]any),
		persisted: make(map[graph.ChunkID]bool),
		keepAlive: make(map[graph.ChunkID]any),
	}
}

// Put installs a freshly computed value under id.
func (s *ChunkStore) Put(id graph.ChunkID, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = v
}

// Get returns a live value, if still present.
func (s *ChunkStore) Get(id graph.ChunkID) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[id]
	return v, ok
}

// Persist marks id as pinned: Free with force=false becomes a no-op.
func (s *ChunkStore) Persist(id graph.ChunkID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted[id] = true
}

// Free releases id's storage. A persisted chunk only yields to force=true.
// When cache is true the value is moved into a keep-alive registry instead
// of being discarded outright, so a future scheduler's cache-hit
// short-circuit can ask for it back via Unrelease.
func (s *ChunkStore) Free(id graph.ChunkID, force, cache bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persisted[id] && !force {
		return
	}
	v, ok := s.data[id]
	delete(s.data, id)
	delete(s.persisted, id)
	if cache && ok {
		s.keepAlive[id] = v
		return
	}
	delete(s.keepAlive, id)
}

// Unrelease is the cache-hit short-circuit's worker-side half: it reports
// whether id is still available, reviving it from the keep-alive registry
// into live storage if that's where it was found. A chunk that was never
// freed in the first place (still live in s.data) counts as available too.
func (s *ChunkStore) Unrelease(id graph.ChunkID) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[id]; ok {
		return v, true
	}
	v, ok := s.keepAlive[id]
	if !ok {
		return nil, false
	}
	s.data[id] = v
	delete(s.keepAlive, id)
	return v, true
}

func (s *ChunkStore) mustGet(id graph.ChunkID) (any, error) {
	v, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("worker: chunk %d not present in store", id)
	}
	return v, nil
}
