// Package metrics exposes storefront counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coinstore"

type Metrics struct {
	CartCommands        *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	Orders              *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		CartCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "commands_total",
			Help:      "Cart commands applied, by command and outcome.",
		}, []string{"command", "outcome"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "persistence_failures_total",
			Help:      "Cart storage failures, by operation.",
		}, []string{"op"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "orders_total",
			Help:      "Checkout submissions, by result.",
		}, []string{"result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Guest sessions with a live cart.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.CartCommands, m.PersistenceFailures, m.Orders, m.ActiveSessions)
	return m
}

func (m *Metrics) ObserveCommand(command string, err error) {
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
	}
	m.CartCommands.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) ObservePersistenceFailure(op string, _ error) {
	m.PersistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveOrder(result string) {
	m.Orders.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionOpened() { m.ActiveSessions.Inc() }

func (m *Metrics) SessionClosed() { m.ActiveSessions.Dec() }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
