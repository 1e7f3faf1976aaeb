package loom

import (
	"context"
	"fmt"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"loom/internal/config"
	"loom/internal/graph"
	"loom/internal/lifetime"
	"loom/internal/telemetry"
	"loom/internal/worker"
)

// Environment bundles a Context with the worker pool, free queue, metrics,
// and event recorder that make it runnable. graph.Context intentionally
// knows nothing about any of this — it's the ambient configuration layer
// shared across packages, while Environment is loom's own top-level
// wiring of it to an actual in-process worker pool.
type Environment struct {
	Ctx       *graph.Context
	Transport *worker.LocalWorkerPool
	Metrics   *telemetry.Metrics
	Recorder  *telemetry.Recorder
	Queue     *lifetime.FreeQueue
	Tracer    *sdktrace.TracerProvider

	gatherWorker *worker.Worker
}

// NewEnvironment builds a fresh Environment from cfg: a worker pool sized
// to cfg.Workers, its own metrics set, an event recorder shared by its runs,
// and a bounded finalizer free-queue (one drain goroutine per worker).
func NewEnvironment(cfg *config.Config) *Environment {
	ctx := config.NewContext(cfg)
	pool := worker.NewLocalWorkerPool(context.Background(), ctx.Workers)
	backlog := 64
	drainers := len(ctx.Workers)
	if drainers < 1 {
		drainers = 1
	}
	return &Environment{
		Ctx:          ctx,
		Transport:    pool,
		Metrics:      telemetry.NewMetrics(),
		Recorder:     telemetry.NewRecorder(),
		Queue:        lifetime.NewFreeQueue(drainers, backlog),
		Tracer:       telemetry.InitGlobalTracerProvider(),
		gatherWorker: worker.New("__gather__"),
	}
}

var (
	defaultEnv     *Environment
	defaultEnvOnce sync.Once
)

// Default lazily builds the process-wide default Environment from
// whatever config.Load("") discovers (a .loom.yaml, LOOM_-prefixed env
// vars, or the built-in defaults).
func Default() *Environment {
	defaultEnvOnce.Do(func() {
		cfg, err := config.Load("")
		if err != nil {
			cfg = &config.Config{
				Workers:  defaultWorkerNames(config.DefaultWorkerCount),
				LogLevel: config.DefaultLogLevel,
			}
		}
		defaultEnv = NewEnvironment(cfg)
	})
	return defaultEnv
}

func defaultWorkerNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i+1)
	}
	return out
}
