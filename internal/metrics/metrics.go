// Package metrics exposes service counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interview_insights"

type Metrics struct {
	registry *prometheus.Registry

	uploads          *prometheus.CounterVec
	analyses         *prometheus.CounterVec
	pollAttempts     *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Audio uploads by outcome.",
		}, []string{"outcome"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Interview analyses by outcome.",
		}, []string{"outcome"}),
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_poll_attempts_total",
			Help:      "Transcription status queries by observed outcome.",
		}, []string{"outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of a full analysis including transcription wait.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.uploads, m.analyses, m.pollAttempts, m.analysisDuration, m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Upload(outcome string) { m.uploads.WithLabelValues(outcome).Inc() }

func (m *Metrics) Analysis(outcome string, took time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	m.analysisDuration.Observe(took.Seconds())
}

func (m *Metrics) PollAttempt(outcome string) { m.pollAttempts.WithLabelValues(outcome).Inc() }

func (m *Metrics) HTTPRequest(route, code string) { m.httpRequests.WithLabelValues(route, code).Inc() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
