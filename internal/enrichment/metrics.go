package enrichment

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Job outcomes recorded in enrichment_jobs_total.
const (
	OutcomeCompleted    = "completed"
	OutcomeFailed       = "failed"
	OutcomeDiscarded    = "discarded"
	OutcomePersistError = "persist_error"
)

// Metrics holds the prometheus collectors for enrichment jobs.
type Metrics struct {
	jobs     *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight prometheus.Gauge
}

// NewMetrics creates and registers the enrichment collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrichment_jobs_total",
				Help: "Enrichment jobs finished, by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrichment_job_duration_seconds",
			Help:    "Wall time of an enrichment job from content fetch to final status write.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enrichment_jobs_in_flight",
			Help: "Enrichment jobs currently running.",
		}),
	}

	for _, c := range []prometheus.Collector{m.jobs, m.duration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) start() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finish(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.jobs.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}
