package lifetime

import "sync"

// freeRequest is one deferred free: a Computed's finalizer cannot block,
// so it hands the actual worker RPC off to this queue instead of doing it
// inline.
type freeRequest struct {
	reg   freeable
	force bool
	cache bool
}

// freeable is the minimal surface the queue needs to perform a free; it
// exists so the queue doesn't need to import the worker package's full
// Registry/Chunk types into its request struct construction path.
type freeable interface {
	doFree(force, cache bool)
}

// FreeQueue is a bounded worker pool draining finalizer-originated free
// requests: a fixed number of goroutines consuming a buffered channel, so a
// GC-triggered free never runs synchronously on the finalizer goroutine.
type FreeQueue struct {
	reqs chan freeRequest

	closeOnce sync.Once
	done      chan struct{}
}

// NewFreeQueue starts workers goroutines draining a queue of depth
// backlog. Both must be positive.
func NewFreeQueue(workers, backlog int) *FreeQueue {
	q := &FreeQueue{
		reqs: make(chan freeRequest, backlog),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go q.drain()
	}
	return q
}

func (q *FreeQueue) drain() {
	for {
		select {
		case req := <-q.reqs:
			req.reg.doFree(req.force, req.cache)
		case <-q.done:
			return
		}
	}
}

// Enqueue submits a free request without blocking. If the backlog is full
// the free runs on its own ephemeral goroutine instead of stalling the
// caller (which, for a finalizer, must never happen).
func (q *FreeQueue) Enqueue(f freeable, force, cache bool) {
	req := freeRequest{reg: f, force: force, cache: cache}
	select {
	case q.reqs <- req:
	default:
		go f.doFree(force, cache)
	}
}

// Close stops the queue's drain goroutines. Pending requests in the
// backlog are dropped.
func (q *FreeQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
