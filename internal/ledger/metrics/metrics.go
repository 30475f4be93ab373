package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the participation ledger.
type Metrics struct {
	Registrations   prometheus.Counter
	Reregistrations prometheus.Counter
	Cancellations   prometheus.Counter
	Attendances     prometheus.Counter
	CapacityRefused prometheus.Counter
}

// New creates and registers the ledger metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_registrations_total",
			Help: "Total successful first-time event registrations.",
		}),
		Reregistrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_reregistrations_total",
			Help: "Total registrations that reused a cancelled record.",
		}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_cancellations_total",
			Help: "Total participation cancellations.",
		}),
		Attendances: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_attendances_total",
			Help: "Total registered-to-attended transitions.",
		}),
		CapacityRefused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_registrations_refused_capacity_total",
			Help: "Registrations refused because the event was at capacity.",
		}),
	}
}
