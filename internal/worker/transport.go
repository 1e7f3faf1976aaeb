package worker

import (
	"context"

	"loom/internal/graph"
)

// Transport is what the scheduler dispatches through: fire a request at a
// worker and, some time later, deliver exactly one Outcome for it on the
// shared completion channel returned by Completions.
type Transport interface {
	// AsyncApply is the master-side launcher (async_apply): it starts a
	// background task that issues the call and forwards the reply (or a
	// captured transport failure) to Completions(). It does not block.
	AsyncApply(ctx context.Context, w graph.WorkerID, req TaskRequest)

	// Completions returns the single channel every worker's replies are
	// funneled into, in arrival order across workers.
	Completions() <-chan Outcome

	// Registry exposes the worker set, e.g. for Context.HasWorker-style
	// liveness checks and for lifetime management's Persist/Free/Unrelease.
	Registry() *Registry
}

// LocalWorkerPool is an in-process Transport: each WorkerID is a goroutine
// pool of exactly one slot (the design's "one concurrent task per worker"),
// draining a per-worker request channel and forwarding results onto a
// single shared completion channel — the same goroutine-pool-draining-a-
// channel shape the scheduler's single-threaded master/parallel-worker
// model calls for.
type LocalWorkerPool struct {
	reg    *Registry
	reqs   map[graph.WorkerID]chan TaskRequest
	done   chan Outcome
	cancel map[graph.WorkerID]context.CancelFunc
}

// NewLocalWorkerPool spins up one goroutine per named worker.
func NewLocalWorkerPool(ctx context.Context, workers []graph.WorkerID) *LocalWorkerPool {
	p := &LocalWorkerPool{
		reg:  NewRegistry(),
		reqs: make(map[graph.WorkerID]chan TaskRequest, len(workers)),
		done: make(chan Outcome, len(workers)*4),
	}
	for _, id := range workers {
		w := New(id)
		p.reg.Add(w)
		reqCh := make(chan TaskRequest)
		p.reqs[id] = reqCh
		go p.run(ctx, w, reqCh)
	}
	return p
}

func (p *LocalWorkerPool) run(ctx context.Context, w *Worker, reqCh <-chan TaskRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-reqCh:
			if !ok {
				return
			}
			out := w.DoTask(ctx, p.reg, req)
			select {
			case p.done <- out:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *LocalWorkerPool) AsyncApply(ctx context.Context, id graph.WorkerID, req TaskRequest) {
	reqCh, ok := p.reqs[id]
	if !ok {
		p.done <- Outcome{
			WorkerID: id,
			ThunkID:  req.ThunkID,
			Failure: &Failure{
				Kind:    FailureTransport,
				Message: "loom: dispatch to unknown worker " + string(id),
			},
		}
		return
	}
	go func() {
		select {
		case reqCh <- req:
		case <-ctx.Done():
			p.done <- Outcome{
				WorkerID: id,
				ThunkID:  req.ThunkID,
				Failure: &Failure{
					Kind:    FailureTransport,
					Message: "loom: context cancelled before dispatch to " + string(id),
					Err:     ctx.Err(),
				},
			}
		}
	}()
}

func (p *LocalWorkerPool) Completions() <-chan Outcome { return p.done }
func (p *LocalWorkerPool) Registry() *Registry          { return p.reg }
