package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	enrollTotal     *prometheus.CounterVec
	checkInTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the engine's collectors on a private registry.
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

	enrollTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_decisions_total",
		Help: "Enrollment attempts by decision code",
	}, []string{"code"})

	checkInTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkins_total",
		Help: "Check-in attempts by method and outcome",
	}, []string{"method", "outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lookup_cache_hits_total",
		Help: "Catalog lookup cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lookup_cache_misses_total",
		Help: "Catalog lookup cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, enrollTotal, checkInTotal, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		enrollTotal:     enrollTotal,
		checkInTotal:    checkInTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request duration and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordEnrollmentDecision counts an enrollment attempt by its decision code.
func (m *MetricsService) RecordEnrollmentDecision(code string) {
	if m == nil {
		return
	}
	m.enrollTotal.WithLabelValues(code).Inc()
}

// RecordCheckIn counts a check-in attempt by method and outcome code.
func (m *MetricsService) RecordCheckIn(method, outcome string) {
	if m == nil {
		return
	}
	m.checkInTotal.WithLabelValues(method, outcome).Inc()
}

// RecordCacheLookup counts a lookup cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
