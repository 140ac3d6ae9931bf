/*
Package observability provides Prometheus metrics and logger setup for the
cash drawer.

METRICS:
  cashdrawer_sessions_opened_total                      counter
  cashdrawer_sessions_closed_total{outcome}             counter
  cashdrawer_movements_recorded_total{kind,method}      counter
  cashdrawer_movements_amended_total                    counter
  cashdrawer_sessions_open                              gauge
  cashdrawer_sessions_stale                             gauge
  cashdrawer_close_discrepancy_abs                      histogram

  Metrics implements drawer.Observer, so the engine feeds it directly.
  sessions_open is set from the store with SetOpen at startup and on every
  stale check; opens and closes in this process move it in between. Each
  Metrics owns its registry; creating several in one process (tests) never
  panics on duplicate registration.

SEE ALSO:
  - drawer/observer.go: The hook interface
  - api/server.go: Serves Handler() on /metrics
*/
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/cashdrawer/drawer"
)

const namespace = "cashdrawer"

type Metrics struct {
	registry *prometheus.Registry

	SessionsOpened    prometheus.Counter
	SessionsClosed    *prometheus.CounterVec
	MovementsRecorded *prometheus.CounterVec
	MovementsAmended  prometheus.Counter
	OpenSessions      prometheus.Gauge
	StaleSessions     prometheus.Gauge
	Discrepancy       prometheus.Histogram
}

var _ drawer.Observer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Total drawer sessions opened.",
		}),
		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "closed_total",
			Help:      "Total drawer sessions closed, by reconciliation outcome.",
		}, []string{"outcome"}),
		MovementsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "movements",
			Name:      "recorded_total",
			Help:      "Total movements recorded, by kind and payment method.",
		}, []string{"kind", "method"}),
		MovementsAmended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "movements",
			Name:      "amended_total",
			Help:      "Total movements amended while their session was open.",
		}),
		OpenSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "open",
			Help:      "Open sessions in the store as of the last sync, adjusted by opens and closes since.",
		}),
		StaleSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "stale",
			Help:      "Sessions still open after their day ended, as of the last check.",
		}),
		Discrepancy: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "close",
			Name:      "discrepancy_abs",
			Help:      "Absolute difference between computed and declared cash at close.",
			Buckets:   []float64{0.01, 1, 5, 10, 50, 100, 500, 1000},
		}),
	}
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionOpened(drawer.Session) {
	m.SessionsOpened.Inc()
	m.OpenSessions.Inc()
}

func (m *Metrics) MovementRecorded(mv drawer.Movement) {
	m.MovementsRecorded.WithLabelValues(string(mv.Kind), string(mv.PaymentMethod)).Inc()
}

func (m *Metrics) MovementAmended(drawer.Movement) {
	m.MovementsAmended.Inc()
}

// SetOpen resyncs the open sessions gauge with the store.
func (m *Metrics) SetOpen(open []drawer.Session) {
	m.OpenSessions.Set(float64(len(open)))
}

// SetStale records the result of a stale session check.
func (m *Metrics) SetStale(stale []drawer.Session) {
	m.StaleSessions.Set(float64(len(stale)))
}

func (m *Metrics) SessionClosed(_ drawer.Session, r drawer.Reconciliation) {
	m.SessionsClosed.WithLabelValues(string(r.Outcome)).Inc()
	m.OpenSessions.Dec()
	abs, _ := r.Discrepancy.Abs().Float64()
	m.Discrepancy.Observe(abs)
}
