package server

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gaussinit"

// Metrics are the Prometheus collectors of the estimate service.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Duration   prometheus.Histogram
	Components prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Handled requests by path and status code.",
			}, []string{"path", "code"}),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "estimate_duration_seconds",
				Help:      "Time spent computing initial values.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			}),
		Components: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "estimate_components",
				Help:      "Number of components returned per estimate.",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			}),
	}
	reg.MustRegister(m.Requests, m.Duration, m.Components)
	return m
}
