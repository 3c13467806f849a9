package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the internal operational metrics registry, additive to the
// business-facing GET /metrics endpoint defined by the simulation
// schema. It is served on a separate path in both binaries so scraping
// infrastructure metrics never collides with the domain endpoint.
type Metrics struct {
	reg *prometheus.Registry

	TicksExecuted     prometheus.Counter
	MissionsAssigned  prometheus.Counter
	MissionsCompleted prometheus.Counter
	MissionsReleased  prometheus.Counter
	RobotsDead        prometheus.Counter
	PollSuccesses     prometheus.Counter
	PollFailures      prometheus.Counter
	ActiveStreams     prometheus.Gauge
}

// NewEngineMetrics builds the registry used by cmd/engine.
func NewEngineMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		TicksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_engine_ticks_total",
			Help: "Total number of simulation ticks executed.",
		}),
		MissionsAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_engine_missions_assigned_total",
			Help: "Total number of missions assigned to a robot.",
		}),
		MissionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_engine_missions_completed_total",
			Help: "Total number of missions completed.",
		}),
		MissionsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_engine_missions_released_total",
			Help: "Total number of missions released back to pending (low-battery rerouting or robot death).",
		}),
		RobotsDead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_engine_robots_dead_total",
			Help: "Total number of robots marked dead (battery depleted or no reachable charging station).",
		}),
	}
	reg.MustRegister(m.TicksExecuted, m.MissionsAssigned, m.MissionsCompleted, m.MissionsReleased, m.RobotsDead)
	return m
}

// NewAggregatorMetrics builds the registry used by cmd/aggregator.
func NewAggregatorMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		PollSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_aggregator_poll_successes_total",
			Help: "Total number of successful polls of the simulation engine.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescueroute_aggregator_poll_failures_total",
			Help: "Total number of failed polls of the simulation engine.",
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rescueroute_aggregator_active_streams",
			Help: "Number of currently open SSE streaming sessions.",
		}),
	}
	reg.MustRegister(m.PollSuccesses, m.PollFailures, m.ActiveStreams)
	return m
}

// Handler exposes the registry on /metrics (or wherever it is mounted).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
