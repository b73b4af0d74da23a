package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"arxivmon/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncFetchesTotal(result string)
	ObserveFetchDuration(duration time.Duration)
}

// PaperCounter reports stored entity counts for gauge metrics.
type PaperCounter interface {
	PaperCount() int
	SeenCount() int
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	fetchesTotal    *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncFetchesTotal(result string) {
	m.fetchesTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObserveFetchDuration(duration time.Duration) {
	m.fetchDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, counts PaperCounter) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivmon_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arxivmon_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "arxivmon_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "arxivmon_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		fetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivmon_fetches_total",
			Help: "Total number of fetch cycles by result",
		}, []string{"result"}),

		fetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "arxivmon_fetch_duration_seconds",
			Help:    "Duration of fetch-and-merge cycles in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "arxivmon_papers_total",
		Help: "Number of papers currently stored",
	}, func() float64 {
		return float64(counts.PaperCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "arxivmon_seen_total",
		Help: "Number of paper ids marked as seen",
	}, func() float64 {
		return float64(counts.SeenCount())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                  {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) IncCacheHits()                                     {}
func (n *noopMetrics) IncCacheMisses()                                   {}
func (n *noopMetrics) IncFetchesTotal(_ string)                          {}
func (n *noopMetrics) ObserveFetchDuration(_ time.Duration)              {}
