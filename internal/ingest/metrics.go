package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for jobtrail_ingest_messages_total.
const (
	OutcomeAccepted   = "accepted"
	OutcomeDuplicate  = "duplicate"
	OutcomeIrrelevant = "irrelevant"
	OutcomeFailed     = "failed"
)

// Metrics counts ingestion outcomes. The zero value and a nil *Metrics are
// both no-ops.
type Metrics struct {
	messages *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the ingestion collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		messages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrail_ingest_messages_total",
				Help: "Messages seen by the ingestion pipeline, by outcome",
			},
			[]string{"outcome"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrail_ingest_runs_total",
				Help: "Fetch-and-ingest runs, by status",
			},
			[]string{"status"}, // status: ok, fetch_error
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobtrail_ingest_run_duration_seconds",
			Help:    "Wall time of one fetch-and-ingest run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}),
	}
}

func (m *Metrics) outcome(label string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(label).Inc()
}

func (m *Metrics) run(status string, d time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(d.Seconds())
}
