package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sheridangray/family-event-planner/internal/dedup"
)

const namespace = "family_events"

// Fetch statuses
const (
	FetchOK    = "ok"
	FetchError = "error"
)

// Registry holds the collectors for one process
type Registry struct {
	reg *prometheus.Registry

	events     *prometheus.CounterVec
	merges     *prometheus.CounterVec
	similarity prometheus.Histogram
	canonical  prometheus.Gauge
	fetches    *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dedup",
		Name:      "events_total",
		Help:      "Input events processed by outcome",
	}, []string{"outcome"})
	r.merges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dedup",
		Name:      "merges_total",
		Help:      "Duplicates merged into canonical events by match type",
	}, []string{"type"})
	r.similarity = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "dedup",
		Name:      "similarity",
		Help:      "Similarity score of merged duplicates",
		Buckets:   []float64{0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
	})
	r.canonical = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dedup",
		Name:      "canonical_events",
		Help:      "Canonical events currently held by the deduplicator",
	})
	r.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_total",
		Help:      "Source fetches by source and status",
	}, []string{"source", "status"})

	r.reg.MustRegister(r.events, r.merges, r.similarity, r.canonical, r.fetches)
	return r
}

// ObserveOutcome implements dedup.Recorder
func (r *Registry) ObserveOutcome(kind dedup.OutcomeKind) {
	r.events.WithLabelValues(string(kind)).Inc()
}

// ObserveMerge implements dedup.Recorder
func (r *Registry) ObserveMerge(mergeType dedup.MergeType, score float64) {
	r.merges.WithLabelValues(string(mergeType)).Inc()
	r.similarity.Observe(score)
}

// SetCanonical implements dedup.Recorder
func (r *Registry) SetCanonical(n int) {
	r.canonical.Set(float64(n))
}

// ObserveFetch counts one source fetch
func (r *Registry) ObserveFetch(source string, err error) {
	status := FetchOK
	if err != nil {
		status = FetchError
	}
	r.fetches.WithLabelValues(source, status).Inc()
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
