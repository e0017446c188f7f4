// Package metrics holds the Prometheus collectors for session and navigation
// activity. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic_console"

type Metrics struct {
	signIns      *prometheus.CounterVec
	signOuts     prometheus.Counter
	unauthorized prometheus.Counter
	navigations  *prometheus.CounterVec
}

// New registers the collectors on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		signIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_in_total",
			Help:      "Sign-in attempts by result.",
		}, []string{"result"}),
		signOuts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_out_total",
			Help:      "Sign-outs, regardless of the logout endpoint outcome.",
		}),
		unauthorized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_responses_total",
			Help:      "401 responses seen by the HTTP client.",
		}),
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_total",
			Help:      "Route guard decisions by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) SignIn(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.signIns.WithLabelValues(result).Inc()
}

func (m *Metrics) SignOut() {
	if m == nil {
		return
	}
	m.signOuts.Inc()
}

func (m *Metrics) Unauthorized() {
	if m == nil {
		return
	}
	m.unauthorized.Inc()
}

func (m *Metrics) Navigation(outcome string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(outcome).Inc()
}
