// Package metrics exposes Prometheus counters for the supervisor's poll
// loop: how many polls ran, how many deviations and reverts occurred,
// how many alerts fired, and how many driver errors surfaced per kind.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "thermsupervisor"

// Registry bundles every counter the supervisor updates, all labeled by
// zone so a single process supervising many zones reports independently
// per zone.
type Registry struct {
	Polls        *prometheus.CounterVec
	Deviations   *prometheus.CounterVec
	Reverts      *prometheus.CounterVec
	Alerts       *prometheus.CounterVec
	DriverErrors *prometheus.CounterVec
}

// NewRegistry builds and registers every counter against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "number of zone polls completed",
		}, []string{"zone"}),
		Deviations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deviations_total",
			Help:      "number of schedule deviations detected",
		}, []string{"zone", "mode"}),
		Reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reverts_total",
			Help:      "number of setpoint reversions issued",
		}, []string{"zone", "mode"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "number of operator alerts sent",
		}, []string{"zone", "kind"}),
		DriverErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_errors_total",
			Help:      "number of driver errors surfaced, by kind",
		}, []string{"zone", "kind"}),
	}
	reg.MustRegister(r.Polls, r.Deviations, r.Reverts, r.Alerts, r.DriverErrors)
	return r
}
