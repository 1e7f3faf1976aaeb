package task

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"loom/internal/graph"
)

func testContext() *graph.Context {
	return graph.NewContext([]graph.WorkerID{"w1"}, slog.Default(), false)
}

func TestApply_StagesToAThunkInvokingTheRegisteredFunc(t *testing.T) {
	Register("task.double", func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	})

	c := Apply("task.double", staticLeaf{21})
	ctx := testContext()

	staged, err := graph.CachedStage(ctx, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	th, ok := staged.(*graph.Thunk)
	if !ok {
		t.Fatalf("expected a *graph.Thunk, got %T", staged)
	}
	got, err := th.F(21)
	if err != nil {
		t.Fatalf("unexpected error invoking thunk func: %v", err)
	}
	if got.(int) != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestApply_UnregisteredNameFailsToStage(t *testing.T) {
	c := Apply("task.does-not-exist")
	ctx := testContext()

	if _, err := graph.CachedStage(ctx, c); err == nil {
		t.Fatalf("expected an error staging an unregistered function name")
	}
}

func TestApply_PersistedAndAsResultSetThunkFlags(t *testing.T) {
	Register("task.identity", func(args ...any) (any, error) { return args[0], nil })

	c := Apply("task.identity", staticLeaf{1}).Persisted().AsResult()
	ctx := testContext()

	staged, err := graph.CachedStage(ctx, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	th := staged.(*graph.Thunk)
	if !th.Persist {
		t.Errorf("expected Persist to be set")
	}
	if !th.GetResult {
		t.Errorf("expected GetResult to be set")
	}
}

func TestApply_ArgumentStagingErrorIsWrapped(t *testing.T) {
	Register("task.noop", func(args ...any) (any, error) { return nil, nil })

	c := Apply("task.noop", failingLeaf{})
	ctx := testContext()

	_, err := graph.CachedStage(ctx, c)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), `staging apply "task.noop" argument`) || !strings.Contains(err.Error(), "intentional staging failure") {
		t.Fatalf("expected the leaf's error wrapped with the apply name, got %v", err)
	}
}

// staticLeaf is a test-only Computation that stages straight to a plain
// value, standing in for a real leaf like a literal or a loaded chunk.
type staticLeaf struct{ value any }

func (staticLeaf) Kind() string { return "task-test.static-leaf" }

type failingLeaf struct{}

func (failingLeaf) Kind() string { return "task-test.failing-leaf" }

func init() {
	graph.RegisterComputationKind("task-test.static-leaf", func(_ *graph.Context, c graph.Computation) (any, error) {
		return c.(staticLeaf).value, nil
	}, nil)
	graph.RegisterComputationKind("task-test.failing-leaf", func(_ *graph.Context, _ graph.Computation) (any, error) {
		return nil, errors.New("failing-leaf: intentional staging failure")
	}, nil)
}
