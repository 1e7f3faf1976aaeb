package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("loom")

// Span names fixed by the design: scheduler_init covers state-machine
// construction, scheduler covers the master's wait for the next
// completion, comm covers a
// worker's data move, compute covers a worker's invocation of a Thunk's
// function.
const (
	SpanSchedulerInit = "scheduler_init"
	SpanScheduler      = "scheduler"
	SpanComm           = "comm"
	SpanCompute        = "compute"
)

// StartSpan opens a span under one of the fixed names above, tagged with a
// master/worker identifier and the relevant thunk id, and returns the
// derived context plus the span so the caller can End() it (usually via
// defer).
func StartSpan(ctx context.Context, name string, ownerID string, thunkID uint64) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, name, oteltrace.WithAttributes(
		attribute.String("loom.owner", ownerID),
		attribute.Int64("loom.thunk_id", int64(thunkID)),
	))
}
