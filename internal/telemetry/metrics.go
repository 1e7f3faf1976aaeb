package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of scheduler gauges: how many Thunks are ready for
// dispatch, how many are currently running on a worker, and a cache-size
// gauge. The scheduler updates the ready and running gauges; nothing in
// loom calls SetCacheSize, so the cache-size gauge reads zero unless a
// caller sets it. Each Metrics has its own registry so separate sets (one
// per Environment, and repeated tests) never collide on a global collector.
type Metrics struct {
	registry  *prometheus.Registry
	ready     prometheus.Gauge
	running   prometheus.Gauge
	cacheSize prometheus.Gauge
}

// NewMetrics builds a fresh gauge set registered against its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loom_scheduler_ready_thunks",
			Help: "Number of Thunks in the ready queue awaiting a worker.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loom_scheduler_running_thunks",
			Help: "Number of Thunks currently dispatched to a worker.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loom_stager_cache_size",
			Help: "Number of Computations memoized in the Context's stager cache.",
		}),
	}
	reg.MustRegister(m.ready, m.running, m.cacheSize)
	return m
}

func (m *Metrics) SetReady(n int)     { m.ready.Set(float64(n)) }
func (m *Metrics) SetRunning(n int)   { m.running.Set(float64(n)) }
func (m *Metrics) SetCacheSize(n int) { m.cacheSize.Set(float64(n)) }

// Handler serves this Metrics set's registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
