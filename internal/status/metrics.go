package status

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/WhisperingChaos/sudokeep/internal/keepalive"
)

// Metrics tracks keepalive counters. Atomic copies serve the JSON status
// endpoint; the Prometheus collectors feed /metrics.
type Metrics struct {
	registry *prometheus.Registry

	refreshOK   prometheus.Counter
	refreshFail prometheus.Counter
	sessions    prometheus.Gauge

	okCount     atomic.Int64
	failCount   atomic.Int64
	active      atomic.Int64
	lastRefresh atomic.Int64 // unix nanos, 0 = never
}

// Compile-time interface guard.
var _ keepalive.Recorder = (*Metrics)(nil)

// NewMetrics creates a Metrics with its own Prometheus registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		refreshOK: factory.NewCounter(prometheus.CounterOpts{
			Name: "sudokeep_refresh_total",
			Help: "Successful silent grace-period refreshes.",
		}),
		refreshFail: factory.NewCounter(prometheus.CounterOpts{
			Name: "sudokeep_refresh_failures_total",
			Help: "Silent refreshes the privilege tool rejected.",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sudokeep_active_sessions",
			Help: "Heartbeat sessions currently running.",
		}),
	}
}

// SessionStarted implements keepalive.Recorder.
func (m *Metrics) SessionStarted(int, time.Duration) {
	m.sessions.Inc()
	m.active.Add(1)
}

// SessionEnded implements keepalive.Recorder.
func (m *Metrics) SessionEnded(int) {
	m.sessions.Dec()
	m.active.Add(-1)
}

// RefreshSucceeded implements keepalive.Recorder.
func (m *Metrics) RefreshSucceeded(int) {
	m.refreshOK.Inc()
	m.okCount.Add(1)
	m.lastRefresh.Store(time.Now().UnixNano())
}

// RefreshFailed implements keepalive.Recorder.
func (m *Metrics) RefreshFailed(int, error) {
	m.refreshFail.Inc()
	m.failCount.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		ActiveSessions:  m.active.Load(),
		Refreshes:       m.okCount.Load(),
		RefreshFailures: m.failCount.Load(),
	}
	if ns := m.lastRefresh.Load(); ns != 0 {
		t := time.Unix(0, ns).UTC()
		snap.LastRefresh = &t
	}
	return snap
}

// Snapshot is a serializable point-in-time metrics view.
type Snapshot struct {
	ActiveSessions  int64      `json:"active_sessions"`
	Refreshes       int64      `json:"refreshes"`
	RefreshFailures int64      `json:"refresh_failures"`
	LastRefresh     *time.Time `json:"last_refresh,omitempty"`
}
