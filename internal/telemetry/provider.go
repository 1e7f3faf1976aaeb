package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var setGlobalOnce sync.Once

// InitGlobalTracerProvider installs an SDK-backed TracerProvider as the
// global otel tracer provider, if one hasn't already been installed by this
// process. Without this, StartSpan's tracer.Start calls against the
// default no-op provider silently produce inert spans; an Environment
// wires a real SDK provider so the four named spans (scheduler_init,
// scheduler, comm, compute) are actually sampled and can be exported by
// attaching a processor externally.
func InitGlobalTracerProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	setGlobalOnce.Do(func() {
		otel.SetTracerProvider(tp)
	})
	return tp
}

// ShutdownTracerProvider flushes and releases an SDK TracerProvider. Callers
// that build their own Environment should defer this.
func ShutdownTracerProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
