package worker

import (
	"context"
	"fmt"

	"loom/internal/graph"
	"loom/internal/telemetry"
)

// Worker is one addressable execution unit: a ChunkStore plus the ability
// to run do_task requests against it.
type Worker struct {
	ID    graph.WorkerID
	Store *ChunkStore
}

func New(id graph.WorkerID) *Worker {
	return &Worker{ID: id, Store: NewChunkStore()}
}

// DoTask implements the design's do_task: move every input onto this
// worker (timed under a comm span), invoke f (timed under a compute span),
// and return either the raw value (send_result) or a new Chunk handle.
// A panic from f is treated as a captured exception, matching the source
// runtime's semantics for a raised error reaching the RPC boundary.
func (w *Worker) DoTask(ctx context.Context, reg *Registry, req TaskRequest) (out Outcome) {
	out = Outcome{WorkerID: w.ID, ThunkID: req.ThunkID}

	fetched := make([]any, len(req.Data))
	func() {
		commCtx, span := telemetry.StartSpan(ctx, telemetry.SpanComm, string(w.ID), uint64(req.ThunkID))
		defer span.End()
		_ = commCtx
		for i, d := range req.Data {
			v, err := Move(reg, w, d)
			if err != nil {
				out.Failure = &Failure{Kind: FailureTransport, Message: err.Error(), Err: err}
				return
			}
			fetched[i] = v
		}
	}()
	if out.Failure != nil {
		return out
	}

	result, err := w.invoke(ctx, req, fetched)
	if err != nil {
		out.Failure = err
		return out
	}

	if req.SendResult {
		out.Value = result
		return out
	}

	id := graph.ChunkID(uint64(req.ThunkID))
	w.Store.Put(id, result)
	if req.Persist {
		w.Store.Persist(id)
	}
	out.Value = &graph.Chunk{ID: id, Worker: w.ID, Persisted: req.Persist}
	return out
}

func (w *Worker) invoke(ctx context.Context, req TaskRequest, fetched []any) (result any, failure *Failure) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanCompute, string(w.ID), uint64(req.ThunkID))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			failure = &Failure{
				Kind:    FailureComputation,
				Message: fmt.Sprintf("%v", r),
			}
		}
	}()

	v, err := req.F(fetched...)
	if err != nil {
		return nil, &Failure{Kind: FailureComputation, Message: err.Error(), Err: err}
	}
	return v, nil
}
