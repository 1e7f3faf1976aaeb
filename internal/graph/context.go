package graph

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// Context is the scheduler's ambient configuration: the worker pool, the
// logging sink, and profiling flags. It is the key for the per-context
// stager cache (see CachedStage in this package), which keys weakly on
// *Context so that letting a Context go out of scope releases its cache
// without an explicit Close call.
type Context struct {
	// RunID uniquely identifies this Context for logging/tracing.
	RunID uuid.UUID

	// Workers is the set of worker identities available for dispatch.
	Workers []WorkerID

	// Logger is the structured logging sink; never nil after NewContext.
	Logger *slog.Logger

	// Profile enables extra span attributes and timing capture.
	Profile bool

	nextID atomic.Uint64
}

// NewContext builds a Context with the given worker pool. A nil logger is
// replaced with slog.Default().
func NewContext(workers []WorkerID, logger *slog.Logger, profile bool) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	ws := make([]WorkerID, len(workers))
	copy(ws, workers)
	return &Context{
		RunID:   uuid.New(),
		Workers: ws,
		Logger:  logger,
		Profile: profile,
	}
}

// NextNodeID assigns the next monotonically increasing NodeID.
func (c *Context) NextNodeID() NodeID {
	return NodeID(c.nextID.Add(1))
}

// HasWorker reports whether w is currently a live member of the Context's
// worker pool. Used to decide whether a cache_ref pointing at a
// since-departed worker should be treated as a cache miss.
func (c *Context) HasWorker(w WorkerID) bool {
	for _, x := range c.Workers {
		if x == w {
			return true
		}
	}
	return false
}
