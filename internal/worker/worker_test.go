package worker

import (
	"context"
	"errors"
	"testing"

	"loom/internal/graph"
)

func TestDoTask_SendResultReturnsRawValue(t *testing.T) {
	w := New("w1")
	reg := NewRegistry()
	reg.Add(w)

	out := w.DoTask(context.Background(), reg, TaskRequest{
		ThunkID:    1,
		F:          func(args ...any) (any, error) { return 42, nil },
		SendResult: true,
	})
	if out.Failure != nil {
		t.Fatalf("unexpected failure: %v", out.Failure)
	}
	if out.Value != 42 {
		t.Fatalf("expected 42, got %v", out.Value)
	}
}

func TestDoTask_WithoutSendResultWrapsChunk(t *testing.T) {
	w := New("w1")
	reg := NewRegistry()
	reg.Add(w)

	out := w.DoTask(context.Background(), reg, TaskRequest{
		ThunkID: 2,
		F:       func(args ...any) (any, error) { return "hello", nil },
	})
	if out.Failure != nil {
		t.Fatalf("unexpected failure: %v", out.Failure)
	}
	chunk, ok := out.Value.(*graph.Chunk)
	if !ok {
		t.Fatalf("expected *graph.Chunk, got %T", out.Value)
	}
	v, ok := w.Store.Get(chunk.ID)
	if !ok || v != "hello" {
		t.Fatalf("expected stored value %q, got %v (present=%v)", "hello", v, ok)
	}
}

func TestDoTask_FunctionErrorIsComputationFailure(t *testing.T) {
	w := New("w1")
	reg := NewRegistry()
	reg.Add(w)

	out := w.DoTask(context.Background(), reg, TaskRequest{
		ThunkID:    3,
		F:          func(args ...any) (any, error) { return nil, errors.New("boom") },
		SendResult: true,
	})
	if out.Failure == nil {
		t.Fatalf("expected a failure")
	}
	if out.Failure.Kind != FailureComputation {
		t.Fatalf("expected computation failure, got %s", out.Failure.Kind)
	}
}

func TestMove_IdentityForPlainValue(t *testing.T) {
	w := New("w1")
	reg := NewRegistry()
	reg.Add(w)

	v, err := Move(reg, w, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected identity move, got %v", v)
	}
}

func TestMove_SameWorkerIsLocalLookup(t *testing.T) {
	w := New("w1")
	reg := NewRegistry()
	reg.Add(w)
	w.Store.Put(5, "local")

	v, err := Move(reg, w, &graph.Chunk{ID: 5, Worker: "w1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "local" {
		t.Fatalf("expected local value, got %v", v)
	}
}

func TestMove_CrossWorkerGathersBytes(t *testing.T) {
	w1 := New("w1")
	w2 := New("w2")
	reg := NewRegistry()
	reg.Add(w1)
	reg.Add(w2)
	w1.Store.Put(9, "remote-value")

	v, err := Move(reg, w2, &graph.Chunk{ID: 9, Worker: "w1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "remote-value" {
		t.Fatalf("expected gathered value, got %v", v)
	}
}
