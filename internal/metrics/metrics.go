// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item outcomes recorded per reconciled record.
const (
	OutcomeFetched = "fetched"
	OutcomeNew     = "new"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

var (
	crawlerItemsTotal          *prometheus.CounterVec
	crawlerRunsTotal           *prometheus.CounterVec
	crawlerFetchSeconds        *prometheus.HistogramVec
	crawlerDateFallbackTotal   *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_items_total",
				Help: "Total reconciled press release items, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		crawlerRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_runs_total",
				Help: "Total per-source crawl runs, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		crawlerFetchSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of per-source fetch durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"source"},
		)

		crawlerDateFallbackTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_date_fallback_total",
				Help: "Total publish dates that could not be parsed and fell back to the current time.",
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveItem increments the per-item counter for the given outcome.
func ObserveItem(source, outcome string) {
	Init()
	crawlerItemsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveRun records one per-source run with its terminal status.
func ObserveRun(source, status string, fetchDuration time.Duration) {
	Init()
	crawlerRunsTotal.WithLabelValues(source, status).Inc()
	crawlerFetchSeconds.WithLabelValues(source).Observe(fetchDuration.Seconds())
}

// ObserveDateFallback counts a publish date substituted with the current time.
func ObserveDateFallback(source string) {
	Init()
	crawlerDateFallbackTotal.WithLabelValues(source).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
