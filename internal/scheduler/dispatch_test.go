package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"loom/internal/graph"
	"loom/internal/telemetry"
	"loom/internal/worker"
)

func newTestContext(workers ...graph.WorkerID) *graph.Context {
	return graph.NewContext(workers, nil, false)
}

func runWithTimeout(t *testing.T, gctx *graph.Context, root *graph.Thunk, pool *worker.LocalWorkerPool) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Run(ctx, gctx, root, pool, telemetry.NopSink{}, nil)
}

func TestRun_DiamondGraphSharedLeaf(t *testing.T) {
	gctx := newTestContext("w1", "w2")
	pool := worker.NewLocalWorkerPool(context.Background(), gctx.Workers)

	leaf := &graph.Thunk{ID: 1, F: func(args ...any) (any, error) { return 2, nil }, GetResult: true}
	b := &graph.Thunk{ID: 2, F: func(args ...any) (any, error) { return args[0].(int) + 10, nil }, Inputs: []any{leaf}, GetResult: true}
	c := &graph.Thunk{ID: 3, F: func(args ...any) (any, error) { return args[0].(int) * 10, nil }, Inputs: []any{leaf}, GetResult: true}
	d := &graph.Thunk{ID: 4, F: func(args ...any) (any, error) { return args[0].(int) + args[1].(int), nil }, Inputs: []any{b, c}, GetResult: true}

	v, err := runWithTimeout(t, gctx, d, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 12+20 {
		t.Fatalf("expected h(f(A), g(A)) = 32, got %v", v)
	}
}

func TestRun_CachedReuseAvoidsSecondInvocation(t *testing.T) {
	gctx := newTestContext("w1")
	pool := worker.NewLocalWorkerPool(context.Background(), gctx.Workers)

	calls := 0
	e := &graph.Thunk{
		ID:    1,
		Cache: true,
		F: func(args ...any) (any, error) {
			calls++
			return "v", nil
		},
	}

	v1, err := runWithTimeout(t, gctx, e, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunk1, ok := v1.(*graph.Chunk)
	if !ok {
		t.Fatalf("expected a chunk result, got %T", v1)
	}
	if calls != 1 {
		t.Fatalf("expected 1 invocation after first run, got %d", calls)
	}

	// Second compute of the SAME *graph.Thunk object (as stager.CachedStage
	// would hand back from its memoization cache): the live CacheRef must
	// short-circuit remote execution entirely.
	v2, err := runWithTimeout(t, gctx, e, pool)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	chunk2, ok := v2.(*graph.Chunk)
	if !ok {
		t.Fatalf("expected a chunk result, got %T", v2)
	}
	if chunk1.ID != chunk2.ID {
		t.Fatalf("expected the cache-hit short circuit to hand back the same chunk, got %v vs %v", chunk1, chunk2)
	}
	if calls != 1 {
		t.Fatalf("expected still only 1 invocation after cached reuse, got %d", calls)
	}
}

func TestRun_FailurePropagationSurfacesMessage(t *testing.T) {
	gctx := newTestContext("w1")
	pool := worker.NewLocalWorkerPool(context.Background(), gctx.Workers)

	boom := &graph.Thunk{ID: 1, F: func(args ...any) (any, error) { return nil, errors.New("boom") }, GetResult: true}

	_, err := runWithTimeout(t, gctx, boom, pool)
	if err == nil {
		t.Fatalf("expected an error")
	}
	var compErr *ComputationError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected a *ComputationError, got %T: %v", err, err)
	}
	if compErr.Message != "boom" {
		t.Fatalf("expected message to contain boom, got %q", compErr.Message)
	}
}

func TestRun_AffinityRoutesTasksToTheirPreferredWorker(t *testing.T) {
	gctx := newTestContext("w1", "w2")
	pool := worker.NewLocalWorkerPool(context.Background(), gctx.Workers)

	c1 := &graph.Chunk{ID: 100, Worker: "w1"}
	c2 := &graph.Chunk{ID: 200, Worker: "w2"}
	w1, err := pool.Registry().Get("w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w2, err := pool.Registry().Get("w2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w1.Store.Put(100, 1)
	w2.Store.Put(200, 2)

	t1 := &graph.Thunk{ID: 1, F: func(args ...any) (any, error) { return args[0], nil }, Inputs: []any{c1}, GetResult: true}
	t2 := &graph.Thunk{ID: 2, F: func(args ...any) (any, error) { return args[0], nil }, Inputs: []any{c2}, GetResult: true}
	top := &graph.Thunk{ID: 3, F: func(args ...any) (any, error) { return []any{args[0], args[1]}, nil }, Inputs: []any{t1, t2}, GetResult: true}

	rec := telemetry.NewRecorder()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := Run(ctx, gctx, top, pool, rec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("expected a 2-element result, got %v", v)
	}
	if pair[0] != 1 || pair[1] != 2 {
		t.Fatalf("expected [1 2], got %v", pair)
	}

	dispatchedTo := make(map[uint64]string)
	for _, e := range rec.Snapshot() {
		if e.Kind == telemetry.EventDispatched {
			dispatchedTo[e.ThunkID] = e.WorkerID
		}
	}
	if dispatchedTo[1] != "w1" || dispatchedTo[2] != "w2" {
		t.Fatalf("expected T1 on w1 and T2 on w2, got %v", dispatchedTo)
	}
}

func TestRun_MetaTaskRunsInlineOnMaster(t *testing.T) {
	gctx := newTestContext("w1")
	pool := worker.NewLocalWorkerPool(context.Background(), gctx.Workers)

	leaf := &graph.Thunk{ID: 1, F: func(args ...any) (any, error) { return 5, nil }, GetResult: true}
	meta := &graph.Thunk{
		ID:   2,
		Meta: true,
		F:    func(args ...any) (any, error) { return args[0].(int) + 1, nil },
		Inputs: []any{leaf},
	}

	v, err := runWithTimeout(t, gctx, meta, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 6 {
		t.Fatalf("expected meta fusion result 6, got %v", v)
	}
}

func TestRun_TupleComputation(t *testing.T) {
	gctx := newTestContext("w1")
	pool := worker.NewLocalWorkerPool(context.Background(), gctx.Workers)

	a := &graph.Thunk{ID: 1, F: func(args ...any) (any, error) { return "a", nil }, GetResult: true}
	b := &graph.Thunk{ID: 2, F: func(args ...any) (any, error) { return "b", nil }, GetResult: true}
	tuple := &graph.Thunk{
		ID: 3,
		F: func(args ...any) (any, error) {
			out := make([]any, len(args))
			copy(out, args)
			return out, nil
		},
		Inputs:    []any{a, b},
		GetResult: true,
	}

	v, err := runWithTimeout(t, gctx, tuple, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.([]any)
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected tuple (a, b), got %v", v)
	}
}
