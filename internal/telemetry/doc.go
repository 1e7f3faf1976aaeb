// Package telemetry is the scheduler's observability surface: the four
// named tracing spans (scheduler_init, scheduler, comm, compute), the
// Prometheus gauges that expose live scheduler depth, and a deterministic
// in-memory event Recorder used by DebugCompute and by tests that assert on
// "what happened" rather than on timing.
package telemetry
