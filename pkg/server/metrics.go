package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "formguard"

// Estimation outcomes reported on formguard_estimations_total.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

type metrics struct {
	estimations  *prometheus.CounterVec
	saveFailures prometheus.Counter
	duration     prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		estimations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "", "estimations_total"),
			Help: "Estimation requests by outcome.",
		}, []string{"outcome"}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "", "history_save_failures_total"),
			Help: "Estimations that could not be written to the history.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(namespace, "", "estimate_duration_seconds"),
			Help:    "Time spent estimating a domain.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.estimations, m.saveFailures, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
