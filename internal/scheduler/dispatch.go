package scheduler

import (
	"context"
	"fmt"
	"sort"

	"loom/internal/graph"
	"loom/internal/telemetry"
	"loom/internal/worker"
)

// Run drives one compute: it builds the scheduler state for root, seeds
// dispatch, then alternates between re-dispatching ready work and waiting
// for the next completion until the DAG is exhausted, returning the
// target's cached result.
func Run(ctx context.Context, gctx *graph.Context, root *graph.Thunk, t worker.Transport, rec telemetry.Sink, m *telemetry.Metrics) (any, error) {
	_, initSpan := telemetry.StartSpan(ctx, telemetry.SpanSchedulerInit, "master", uint64(root.ID))
	s, err := NewState(root)
	initSpan.End()
	if err != nil {
		return nil, err
	}

	d := &dispatcher{
		ctx:     gctx,
		state:   s,
		t:       t,
		rec:     rec,
		metrics: m,
		busy:    make(map[graph.WorkerID]*graph.Thunk),
		assign:  make(map[*graph.Thunk]graph.WorkerID),
	}

	if err := d.cycle("", nil); err != nil {
		return nil, err
	}

	for !s.Done() {
		_, span := telemetry.StartSpan(ctx, telemetry.SpanScheduler, "master", uint64(root.ID))
		select {
		case <-ctx.Done():
			span.End()
			return nil, &TransportError{ThunkID: uint64(root.ID), Message: ctx.Err().Error()}
		case outcome := <-t.Completions():
			span.End()
			immediateNext, err := d.handleCompletion(outcome)
			if err != nil {
				return nil, err
			}
			if err := d.cycle(outcome.WorkerID, immediateNext); err != nil {
				return nil, err
			}
		}
	}

	v, ok := s.Result()
	if !ok {
		return nil, &StructuralError{Message: fmt.Sprintf("run terminated without a result for thunk %d", root.ID)}
	}
	return v, nil
}

type dispatcher struct {
	ctx     *graph.Context
	state   *State
	t       worker.Transport
	rec     telemetry.Sink
	metrics *telemetry.Metrics

	busy   map[graph.WorkerID]*graph.Thunk
	assign map[*graph.Thunk]graph.WorkerID
}

// cycle is one pass of the design's "re-dispatch": it first drains every
// ready meta Thunk inline (no channel round-trip), then assigns remaining
// ready work to free workers — the worker that just freed up gets the
// fast immediate-next path if one was unlocked by the completion that
// triggered this cycle, bypassing affinity; every other free worker goes
// through affinity-aware selection.
func (d *dispatcher) cycle(freed graph.WorkerID, immediateNext *graph.Thunk) error {
	if err := d.drainMeta(); err != nil {
		return err
	}

	live := make(map[graph.WorkerID]bool, len(d.ctx.Workers))
	for _, w := range d.ctx.Workers {
		live[w] = true
	}

	free := d.freeWorkers()

	if freed != "" && immediateNext != nil {
		if idx := d.readyIndex(immediateNext); idx >= 0 {
			if err := d.dispatchTo(freed, d.state.popReady(idx)); err != nil {
				return err
			}
			free = removeWorker(free, freed)
		}
	}

	for _, w := range free {
		if len(d.state.ready) == 0 {
			break
		}
		idx, ok := selectForWorker(d.state.ready, w, live, d.state.priority)
		if !ok {
			continue
		}
		if err := d.dispatchTo(w, d.state.popReady(idx)); err != nil {
			return err
		}
	}

	d.reportMetrics()
	return nil
}

func (d *dispatcher) freeWorkers() []graph.WorkerID {
	out := make([]graph.WorkerID, 0, len(d.ctx.Workers))
	for _, w := range d.ctx.Workers {
		if _, busy := d.busy[w]; !busy {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func removeWorker(ws []graph.WorkerID, target graph.WorkerID) []graph.WorkerID {
	out := ws[:0]
	for _, w := range ws {
		if w != target {
			out = append(out, w)
		}
	}
	return out
}

func (d *dispatcher) readyIndex(target *graph.Thunk) int {
	for i, t := range d.state.ready {
		if t == target {
			return i
		}
	}
	return -1
}

// dispatchTo fires th on worker w, first trying the cache-hit
// short-circuit when th is a persisted Thunk with a live CacheRef.
func (d *dispatcher) dispatchTo(w graph.WorkerID, th *graph.Thunk) error {
	if th.Meta {
		return &StructuralError{Message: fmt.Sprintf("meta thunk %d reached worker dispatch", th.ID)}
	}
	if _, already := d.assign[th]; already {
		return &StructuralError{Message: fmt.Sprintf("thunk %d fired twice", th.ID)}
	}

	if th.Cache && th.CacheRef != nil {
		if short, ok := d.tryCacheShortCircuit(th); ok {
			d.ctx.Logger.Debug("cache short-circuit", "thunk", th.ID, "worker", w, "fingerprint", graph.Fingerprint(th))
			telemetry.SafeRecord(d.rec, telemetry.Event{Kind: telemetry.EventCacheShortCircuit, ThunkID: uint64(th.ID), WorkerID: string(w)})
			d.finishTask(th, short, true)
			return nil
		}
		th.CacheRef = nil
	}

	d.busy[w] = th
	d.assign[th] = w
	d.state.running[th] = struct{}{}
	d.ctx.Logger.Debug("dispatching thunk", "thunk", th.ID, "worker", w, "fingerprint", graph.Fingerprint(th))
	telemetry.SafeRecord(d.rec, telemetry.Event{Kind: telemetry.EventDispatched, ThunkID: uint64(th.ID), WorkerID: string(w)})

	d.t.AsyncApply(context.Background(), w, worker.TaskRequest{
		ThunkID:    th.ID,
		F:          th.F,
		Data:       d.resolvedInputs(th),
		SendResult: th.GetResult,
		Persist:    th.Persist,
	})
	return nil
}

// resolvedInputs builds the data slice for a fired Thunk: every *graph.Thunk
// input is replaced by its already-computed value from the cache (the
// invariant finish_task establishes before a dependent ever becomes ready),
// leaving non-Thunk inputs (chunks, literals) untouched.
func (d *dispatcher) resolvedInputs(th *graph.Thunk) []any {
	out := make([]any, len(th.Inputs))
	for i, in := range th.Inputs {
		if node, ok := in.(*graph.Thunk); ok {
			out[i] = d.state.cache[any(node)]
			continue
		}
		out[i] = in
	}
	return out
}

// tryCacheShortCircuit asks the worker holding th.CacheRef to unrelease
// it. Success installs the chunk as the result without remote work;
// failure clears the ref so normal execution proceeds.
func (d *dispatcher) tryCacheShortCircuit(th *graph.Thunk) (any, bool) {
	chunk, ok := th.CacheRef.(*graph.Chunk)
	if !ok {
		return nil, false
	}
	if !d.ctx.HasWorker(chunk.Worker) {
		// Open question (b): a cache_ref on a worker no longer in the
		// Context is treated as a cache miss.
		return nil, false
	}
	w, err := d.t.Registry().Get(chunk.Worker)
	if err != nil {
		return nil, false
	}
	if _, ok := w.Store.Unrelease(chunk.ID); ok {
		return chunk, true
	}
	return nil, false
}

// drainMeta executes every ready meta Thunk inline, on the master, until
// none remain (a meta Thunk's completion can itself unlock another meta
// Thunk).
func (d *dispatcher) drainMeta() error {
	for {
		idx := -1
		for i, t := range d.state.ready {
			if t.Meta {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		th := d.state.popReady(idx)
		if _, already := d.assign[th]; already {
			return &StructuralError{Message: fmt.Sprintf("meta thunk %d fired twice", th.ID)}
		}
		d.assign[th] = "master"
		d.state.running[th] = struct{}{}

		v, err := th.F(d.resolvedInputs(th)...)
		if err != nil {
			return &ComputationError{ThunkID: uint64(th.ID), Message: err.Error()}
		}
		d.finishTask(th, v, false)
	}
}

// handleCompletion processes one worker reply: on failure it aborts the
// run; on success it installs the result, runs finish_task, and returns
// the immediate-next child (if any) unlocked by this specific completion.
func (d *dispatcher) handleCompletion(o worker.Outcome) (*graph.Thunk, error) {
	th := d.busy[o.WorkerID]
	if th == nil || th.ID != o.ThunkID {
		return nil, &StructuralError{Message: fmt.Sprintf("completion for thunk %d does not match worker %s's assignment", o.ThunkID, o.WorkerID)}
	}
	delete(d.busy, o.WorkerID)

	if o.Failure != nil {
		telemetry.SafeRecord(d.rec, telemetry.Event{Kind: telemetry.EventFailed, ThunkID: uint64(th.ID), WorkerID: string(o.WorkerID)})
		switch o.Failure.Kind {
		case worker.FailureTransport:
			d.ctx.Logger.Warn("transport failure", "thunk", th.ID, "worker", o.WorkerID, "err", o.Failure.Message)
			return nil, &TransportError{ThunkID: uint64(th.ID), Message: o.Failure.Message}
		default:
			d.ctx.Logger.Warn("computation failure", "thunk", th.ID, "worker", o.WorkerID, "err", o.Failure.Message)
			return nil, &ComputationError{ThunkID: uint64(th.ID), Message: o.Failure.Message}
		}
	}

	if th.Cache {
		if chunk, ok := o.Value.(*graph.Chunk); ok {
			th.CacheRef = chunk
		}
	}

	return d.finishTask(th, o.Value, false), nil
}

// finishTask implements the design's finish_task: unlocks dependents whose
// last waiting input this was (collecting the last one unlocked as the
// immediate-next fast-path candidate), frees inputs whose last dependent
// just fired (unless they are a persisted cache slot), and retires node
// from running.
func (d *dispatcher) finishTask(node *graph.Thunk, result any, suppressFree bool) *graph.Thunk {
	d.state.cache[any(node)] = result
	telemetry.SafeRecord(d.rec, telemetry.Event{Kind: telemetry.EventFinished, ThunkID: uint64(node.ID)})

	var immediateNext *graph.Thunk
	for _, dep := range d.state.dependents[any(node)] {
		set, ok := d.state.waiting[dep]
		if !ok {
			continue
		}
		set.remove(node)
		if set.empty() {
			delete(d.state.waiting, dep)
			d.state.ready = append(d.state.ready, dep)
			immediateNext = dep
		}
	}

	if !suppressFree {
		for _, in := range node.Inputs {
			set, ok := d.state.waitingData[in]
			if !ok {
				continue
			}
			set.remove(node)
			if set.empty() {
				delete(d.state.waitingData, in)
				d.freeIfNotCached(in)
			}
		}
	}

	delete(d.state.running, node)
	d.state.finished = node
	return immediateNext
}

// freeIfNotCached releases the stored result for a finished node unless it
// is a persisted (cache=true) Thunk, in which case the slot is retained.
func (d *dispatcher) freeIfNotCached(node any) {
	if th, ok := node.(*graph.Thunk); ok && th.Cache {
		return
	}
	v, ok := d.state.cache[node]
	if !ok {
		return
	}
	delete(d.state.cache, node)
	telemetry.SafeRecord(d.rec, telemetry.Event{Kind: telemetry.EventFreed, ThunkID: nodeID(node)})

	if chunk, ok := v.(*graph.Chunk); ok {
		if w, err := d.t.Registry().Get(chunk.Worker); err == nil {
			w.Store.Free(chunk.ID, false, false)
		}
	}
}

func nodeID(node any) uint64 {
	if th, ok := node.(*graph.Thunk); ok {
		return uint64(th.ID)
	}
	return 0
}

func (d *dispatcher) reportMetrics() {
	if d.metrics == nil {
		return
	}
	d.metrics.SetReady(len(d.state.ready))
	d.metrics.SetRunning(len(d.state.running))
}
