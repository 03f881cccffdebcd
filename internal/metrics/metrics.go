// Package metrics exposes Prometheus instrumentation for scrape runs.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional recorder without checking for it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "buchloe_events"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched  *prometheus.CounterVec
	detailFetches *prometheus.CounterVec
	eventsDropped *prometheus.CounterVec
	eventsScraped prometheus.Gauge
	eventsChanged *prometheus.CounterVec
	runDuration   prometheus.Summary
	lastSuccessTS prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing pages fetched by HTTP status",
		}, []string{"status"}),
		detailFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_fetches_total",
			Help:      "Detail page description fetches by result",
		}, []string{"result"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Fragments that did not yield an event, by reason",
		}, []string{"reason"}),
		eventsScraped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_scraped",
			Help:      "Unique events found by the last run",
		}),
		eventsChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_changed_total",
			Help:      "Events added or removed between snapshots",
		}, []string{"change"}),
		runDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent on a full scrape run",
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful run",
		}),
	}

	m.registry.MustRegister(
		m.pagesFetched, m.detailFetches, m.eventsDropped,
		m.eventsScraped, m.eventsChanged, m.runDuration, m.lastSuccessTS,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PageFetched counts a listing page response. status 0 means a transport error.
func (m *Metrics) PageFetched(status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = http.StatusText(status)
		if label == "" {
			label = "unknown"
		}
	}
	m.pagesFetched.WithLabelValues(label).Inc()
}

// DetailFetched counts a detail page fetch.
func (m *Metrics) DetailFetched(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.detailFetches.WithLabelValues(result).Inc()
}

// EventDropped counts a fragment skipped for the given reason.
func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(reason).Inc()
}

// RunCompleted records the outcome of a successful run.
func (m *Metrics) RunCompleted(scraped, added, removed int, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.eventsScraped.Set(float64(scraped))
	m.eventsChanged.WithLabelValues("added").Add(float64(added))
	m.eventsChanged.WithLabelValues("removed").Add(float64(removed))
	m.runDuration.Observe(took.Seconds())
	m.lastSuccessTS.Set(float64(at.Unix()))
}
