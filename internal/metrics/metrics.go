// Package metrics exposes Prometheus counters and histograms for the
// timing pipeline, the model gateway and the daily alert job.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the navigator.
type Metrics struct {
	registry *prometheus.Registry

	LLMAttempts      *prometheus.CounterVec // labels: provider, outcome
	LLMAttemptDur    prometheus.Histogram
	AnalysesTotal    *prometheus.CounterVec // labels: outcome
	AnalysisDur      prometheus.Histogram
	AlertsTotal      *prometheus.CounterVec // labels: outcome
	HTTPRequests     *prometheus.CounterVec // labels: route, status
	HTTPRequestDur   *prometheus.HistogramVec
	LastAlertRunUnix prometheus.Gauge
	AlertRunDur      prometheus.Histogram

	now func() time.Time
}

// New registers and returns all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LLMAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigator_llm_attempts_total",
			Help: "Model gateway attempts by outcome",
		}, []string{"provider", "outcome"}),
		LLMAttemptDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navigator_llm_attempt_duration_seconds",
			Help:    "Latency of a single model completion attempt",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigator_analyses_total",
			Help: "Timing analyses by outcome",
		}, []string{"outcome"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navigator_analysis_duration_seconds",
			Help:    "End-to-end timing analysis latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigator_alerts_total",
			Help: "Alert job events by outcome",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigator_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "navigator_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		LastAlertRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "navigator_alert_last_run_timestamp_seconds",
			Help: "Unix time of the last completed daily alert run",
		}),
		AlertRunDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navigator_alert_run_duration_seconds",
			Help:    "Duration of a daily alert run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		now: time.Now,
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LLMAttempts,
		m.LLMAttemptDur,
		m.AnalysesTotal,
		m.AnalysisDur,
		m.AlertsTotal,
		m.HTTPRequests,
		m.HTTPRequestDur,
		m.LastAlertRunUnix,
		m.AlertRunDur,
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLLMAttempt records one gateway attempt.
func (m *Metrics) ObserveLLMAttempt(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMAttempts.WithLabelValues(provider, outcome).Inc()
	m.LLMAttemptDur.Observe(d.Seconds())
}

// ObserveAnalysis records one timing analysis.
func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDur.Observe(d.Seconds())
}

// ObserveAlert records one alert job event.
func (m *Metrics) ObserveAlert(outcome string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAlertRun stamps the completion of a daily run.
func (m *Metrics) ObserveAlertRun(d time.Duration) {
	if m == nil {
		return
	}
	m.LastAlertRunUnix.Set(float64(m.now().Unix()))
	m.AlertRunDur.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
	m.HTTPRequestDur.WithLabelValues(route).Observe(d.Seconds())
}
