package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the incentive ledger.
type Metrics struct {
	Awards        prometheus.Counter
	PointsAwarded prometheus.Counter
}

// New creates and registers the incentive metrics.
func New() *Metrics {
	return &Metrics{
		Awards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_point_awards_total",
			Help: "Total point awards applied.",
		}),
		PointsAwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuspulse_points_awarded_total",
			Help: "Total points awarded across all participants.",
		}),
	}
}
