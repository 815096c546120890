// Package metrics holds the Prometheus collectors for searches, upstream
// retries, the result cache and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ats-aggregator/internal/retry"
)

var (
	// SourceSearchesTotal counts source calls by outcome: ok, transient,
	// terminal, exhausted, cancelled or timeout
	SourceSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_source_searches_total",
			Help: "Total number of source searches by outcome",
		},
		[]string{"source", "outcome"},
	)

	SourcePostingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_source_postings_total",
			Help: "Total number of postings returned per source",
		},
		[]string{"source"},
	)

	SourceSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ats_source_search_duration_seconds",
			Help:    "Source search latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"source"},
	)

	// UpstreamAttemptFailuresTotal counts failed upstream attempts, whether or
	// not they were retried
	UpstreamAttemptFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_upstream_attempt_failures_total",
			Help: "Total number of failed upstream attempts",
		},
		[]string{"source", "class", "will_retry"},
	)

	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ats_aggregate_duration_seconds",
			Help:    "End-to-end aggregate latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	EnabledSources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ats_enabled_sources",
			Help: "Number of sources enabled by configuration",
		},
	)

	// CacheLookupsTotal counts result cache lookups: hit, miss or error
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ats_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_grpc_requests_total",
			Help: "Total number of gRPC calls by status code",
		},
		[]string{"method", "code"},
	)

	GRPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ats_grpc_request_duration_seconds",
			Help:    "gRPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Recorder feeds aggregator events into the package collectors.
type Recorder struct{}

func (Recorder) SourceSearched(source, outcome string, postings int, elapsed time.Duration) {
	SourceSearchesTotal.WithLabelValues(source, outcome).Inc()
	SourcePostingsTotal.WithLabelValues(source).Add(float64(postings))
	SourceSearchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (Recorder) AggregateCompleted(elapsed time.Duration) {
	AggregateDuration.Observe(elapsed.Seconds())
}

// ObserveAttempt has the signature of sources.Deps.Observer.
func ObserveAttempt(source string, a retry.Attempt) {
	UpstreamAttemptFailuresTotal.WithLabelValues(source, retry.ClassOf(a.Err), strconv.FormatBool(a.WillRetry)).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveGRPC records one finished gRPC call.
func ObserveGRPC(method, code string, elapsed time.Duration) {
	GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	GRPCRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
