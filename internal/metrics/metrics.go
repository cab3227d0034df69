// Package metrics exposes Prometheus collectors for ingestion, analysis runs
// and the HTTP API. Every Metrics value owns its own registry so tests and
// multiple servers never collide on the default one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
)

const namespace = "fantasy_insights"

// Metrics holds the registered collectors.
type Metrics struct {
	registry *prometheus.Registry

	RowsIngested     *prometheus.CounterVec
	AnalysisRuns     prometheus.Counter
	AnalysisDuration prometheus.Histogram
	RankedEntries    *prometheus.GaugeVec
	Insufficient     *prometheus.GaugeVec
	HTTPRequests     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_ingested_total",
			Help:      "Rows handed to the record store, by position and outcome.",
		}, []string{"position", "outcome"}),
		AnalysisRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Completed full analysis runs.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of full analysis runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		RankedEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ranked_entries",
			Help:      "Ranked entries in the latest report, by position and metric.",
		}, []string{"position", "metric"}),
		Insufficient: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "insufficient_entries",
			Help:      "Players without enough data in the latest report, by position and metric.",
		}, []string{"position", "metric"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RowsIngested,
		m.AnalysisRuns,
		m.AnalysisDuration,
		m.RankedEntries,
		m.Insufficient,
		m.HTTPRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveLoad records the outcome counts of one store batch.
func (m *Metrics) ObserveLoad(res storage.LoadResult) {
	pos := string(res.Position)
	m.RowsIngested.WithLabelValues(pos, "accepted").Add(float64(res.Accepted))
	m.RowsIngested.WithLabelValues(pos, "replaced").Add(float64(res.Replaced))
	m.RowsIngested.WithLabelValues(pos, "skipped").Add(float64(res.Skipped))
}

// ObserveReport records a completed run and the size of each ranking.
func (m *Metrics) ObserveReport(rep *analysis.Report, took time.Duration) {
	m.AnalysisRuns.Inc()
	m.AnalysisDuration.Observe(took.Seconds())
	for _, pr := range rep.Positions {
		for _, r := range pr.Rankings {
			m.RankedEntries.WithLabelValues(string(pr.Position), string(r.Metric)).Set(float64(len(r.Entries)))
			m.Insufficient.WithLabelValues(string(pr.Position), string(r.Metric)).Set(float64(len(r.Insufficient)))
		}
	}
}

// ObserveRequest counts one API request.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
