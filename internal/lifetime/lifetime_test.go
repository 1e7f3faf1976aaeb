package lifetime

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"loom/internal/graph"
	"loom/internal/worker"
)

func TestPersist_BlocksSubsequentNonForcedFree(t *testing.T) {
	reg := worker.NewRegistry()
	w := worker.New("w1")
	reg.Add(w)
	w.Store.Put(1, "v")

	chunk := &graph.Chunk{ID: 1, Worker: "w1"}
	require.NoError(t, Persist(reg, chunk))

	require.NoError(t, Free(reg, chunk, false, false))
	_, ok := w.Store.Get(1)
	require.True(t, ok, "expected persisted chunk to survive a non-forced free")

	require.NoError(t, Free(reg, chunk, true, false))
	_, ok = w.Store.Get(1)
	require.False(t, ok, "expected a forced free to remove a persisted chunk")
}

func TestFreeQueue_EnqueueRunsFree(t *testing.T) {
	reg := worker.NewRegistry()
	w := worker.New("w1")
	reg.Add(w)
	w.Store.Put(1, "v")

	q := NewFreeQueue(2, 8)
	defer q.Close()

	done := make(chan struct{})
	f := &chunkFreer{reg: reg, chunk: &graph.Chunk{ID: 1, Worker: "w1"}}
	go func() {
		q.Enqueue(f, false, false)
		close(done)
	}()
	<-done

	// The free is asynchronous; poll briefly rather than sleeping a fixed
	// duration. In practice the single-item backlog drains near-instantly.
	for i := 0; i < 10000; i++ {
		if _, ok := w.Store.Get(1); !ok {
			return
		}
		runtime.Gosched()
	}
	t.Fatalf("expected queued free to eventually remove the chunk")
}
