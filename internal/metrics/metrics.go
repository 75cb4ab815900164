// Package metrics exposes Prometheus metrics for background loads and live
// sessions.
package metrics

import (
	"github.com/perbu/sessmon/internal/async"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks load lifecycle counts and the live session gauge. Its
// Observe method is registered as a status listener, so it runs on the
// owning context.
type Collector struct {
	started   prometheus.Counter
	succeeded prometheus.Counter
	failed    prometheus.Counter
	canceled  prometheus.Counter
	inflight  prometheus.Gauge
	sessions  prometheus.Gauge
}

// New creates a Collector and registers its metrics with reg.
func New(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = "sessmon"
	}

	c := &Collector{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "How many background loads have been started",
		}),
		succeeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_succeeded_total",
			Help:      "How many background loads delivered a result",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "How many background loads failed",
		}),
		canceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_canceled_total",
			Help:      "How many background loads were canceled or superseded",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_inflight",
			Help:      "Whether a background load is currently outstanding",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "How many live UI sessions are being tracked",
		}),
	}

	reg.MustRegister(
		c.started,
		c.succeeded,
		c.failed,
		c.canceled,
		c.inflight,
		c.sessions,
	)
	return c
}

// Observe updates the load counters from a status event.
func (c *Collector) Observe(st async.Status) {
	switch st.State {
	case async.StateRunning:
		c.started.Inc()
		c.inflight.Set(1)
	case async.StateSucceeded:
		c.succeeded.Inc()
		c.inflight.Set(0)
	case async.StateFailed:
		c.failed.Inc()
		c.inflight.Set(0)
	case async.StateCanceled:
		c.canceled.Inc()
		c.inflight.Set(0)
	}
}

// SetActiveSessions updates the live session gauge.
func (c *Collector) SetActiveSessions(n int) {
	c.sessions.Set(float64(n))
}
