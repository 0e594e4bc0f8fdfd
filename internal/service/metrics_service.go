package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API, with
// translation-cache counters split by tier so hot-tier outages are visible
// separately from genuine misses.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	remoteCalls     prometheus.Counter
	remoteFailures  prometheus.Counter
	remoteDuration  prometheus.Observer
	fallbacks       prometheus.Counter
}

// Translation cache lookup outcomes per tier.
const (
	CacheTierRedis    = "redis"
	CacheTierPostgres = "postgres"

	CacheOutcomeHit   = "hit"
	CacheOutcomeMiss  = "miss"
	CacheOutcomeError = "error"
)

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_cache_lookups_total",
		Help: "Translation cache lookups by tier and outcome",
	}, []string{"tier", "outcome"})

	remoteCalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "translation_remote_calls_total",
		Help: "Total remote translation batch calls",
	})

	remoteFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "translation_remote_failures_total",
		Help: "Remote translation batch calls that exhausted retries",
	})

	remoteDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "translation_remote_duration_seconds",
		Help:    "Duration of remote translation batch calls",
		Buckets: prometheus.DefBuckets,
	})

	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "translation_identity_fallbacks_total",
		Help: "Texts served verbatim because remote translation failed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, remoteCalls, remoteFailures, remoteDuration, fallbacks, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		remoteCalls:     remoteCalls,
		remoteFailures:  remoteFailures,
		remoteDuration:  remoteDuration,
		fallbacks:       fallbacks,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup records one translation cache lookup outcome for a tier.
func (m *MetricsService) RecordCacheLookup(tier, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(tier, outcome).Inc()
}

// RecordRemoteCall records one remote batch call and its duration.
func (m *MetricsService) RecordRemoteCall(duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.remoteCalls.Inc()
	m.remoteDuration.Observe(duration.Seconds())
	if failed {
		m.remoteFailures.Inc()
	}
}

// RecordIdentityFallbacks records texts served verbatim after remote failure.
func (m *MetricsService) RecordIdentityFallbacks(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.fallbacks.Add(float64(count))
}
