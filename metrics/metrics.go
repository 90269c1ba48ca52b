// Package metrics exports indexer activity to Prometheus.
//
// Recorder implements indexer.Recorder. Collectors are registered on the
// Registerer passed to New so tests can use a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/rent-indexer/event"
)

const DefaultPrefix = "rentindex"

type Recorder struct {
	EventsTotal       *prometheus.CounterVec
	EventErrorsTotal  *prometheus.CounterVec
	AnomaliesTotal    *prometheus.CounterVec
	RentsMaterialized prometheus.Counter
	SchedulesExpanded prometheus.Counter
	ReduceDuration    *prometheus.HistogramVec
}

// New registers the collectors on reg under prefix.
func New(reg prometheus.Registerer, prefix string) *Recorder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	factory := promauto.With(reg)

	return &Recorder{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_events_total",
				Help: "Total number of events delivered to the reducers",
			},
			[]string{"kind"},
		),
		EventErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_event_errors_total",
				Help: "Events rolled back because the store failed",
			},
			[]string{"kind"},
		),
		AnomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_anomalies_total",
				Help: "Suspect conditions tolerated by the reducers",
			},
			[]string{"kind", "reason"},
		),
		RentsMaterialized: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_rent_payments_materialized_total",
				Help: "Installment records written by schedule expansion",
			},
		),
		SchedulesExpanded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_schedules_materialized_total",
				Help: "Schedule expansions, including idempotent re-runs",
			},
		),
		ReduceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_reduce_duration_seconds",
				Help:    "Time to apply one event, transaction included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) EventApplied(kind event.Kind, elapsed time.Duration, err error) {
	label := kindLabel(kind)
	r.EventsTotal.WithLabelValues(label).Inc()
	r.ReduceDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil {
		r.EventErrorsTotal.WithLabelValues(label).Inc()
	}
}

func (r *Recorder) Anomaly(kind event.Kind, reason string) {
	r.AnomaliesTotal.WithLabelValues(kindLabel(kind), reason).Inc()
}

func (r *Recorder) Materialized(_ string, count int) {
	r.SchedulesExpanded.Inc()
	r.RentsMaterialized.Add(float64(count))
}

// Handler serves the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func kindLabel(kind event.Kind) string {
	if kind == "" {
		return "unknown"
	}
	return string(kind)
}
