// Package metrics holds the Prometheus collectors for the summarizer service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors.
type Metrics struct {
	Summaries       *prometheus.CounterVec
	SummaryRunes    prometheus.Histogram
	SummaryDuration *prometheus.HistogramVec
	TitleRequests   *prometheus.CounterVec
	ClusterRequests *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marksum_summaries_total",
			Help: "Summaries produced, by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		SummaryRunes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marksum_summary_runes",
			Help:    "Length of produced summaries in runes",
			Buckets: []float64{50, 100, 150, 200, 300, 500, 1000},
		}),
		SummaryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marksum_summary_duration_seconds",
			Help:    "Time spent summarizing one page",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"strategy"}),
		TitleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marksum_title_requests_total",
			Help: "Title generation attempts, by outcome",
		}, []string{"outcome"}),
		ClusterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marksum_cluster_requests_total",
			Help: "Clustering service calls, by outcome",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marksum_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		}, []string{"route", "code"}),
	}
	if reg != nil {
		reg.MustRegister(m.Summaries, m.SummaryRunes, m.SummaryDuration, m.TitleRequests, m.ClusterRequests, m.HTTPRequests)
	}
	return m
}

// Outcome labels.
const (
	OK      = "ok"
	Empty   = "empty"
	Failed  = "error"
	Skipped = "skipped"
)

// ObserveSummary records one summarization. A nil receiver is a no-op.
func (m *Metrics) ObserveSummary(strategy, outcome string, runes int, took time.Duration) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(strategy, outcome).Inc()
	m.SummaryDuration.WithLabelValues(strategy).Observe(took.Seconds())
	if outcome == OK {
		m.SummaryRunes.Observe(float64(runes))
	}
}

// ObserveTitle records one title generation attempt.
func (m *Metrics) ObserveTitle(outcome string) {
	if m == nil {
		return
	}
	m.TitleRequests.WithLabelValues(outcome).Inc()
}

// ObserveCluster records one clustering call.
func (m *Metrics) ObserveCluster(outcome string) {
	if m == nil {
		return
	}
	m.ClusterRequests.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	if code < 100 || code > 999 {
		return "unknown"
	}
	return strconv.Itoa(code)
}
