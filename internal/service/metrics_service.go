package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API
// and the domain workflow counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	poolTransitions *prometheus.CounterVec
	confirmGroups   *prometheus.CounterVec
	changeDecisions *prometheus.CounterVec
	exportJobs      *prometheus.CounterVec
}

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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quota_cache_hits_total",
		Help: "Total quota status cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quota_cache_misses_total",
		Help: "Total quota status cache misses",
	})

	poolTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_transitions_total",
		Help: "Pool entry state transitions by target state",
	}, []string{"state"})

	confirmGroups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "confirmation_groups_total",
		Help: "Confirmation groups processed by outcome",
	}, []string{"outcome"})

	changeDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_request_decisions_total",
		Help: "Change request review decisions",
	}, []string{"decision"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_export_jobs_total",
		Help: "Roster export jobs by final status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		poolTransitions, confirmGroups, changeDecisions, exportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		poolTransitions: poolTransitions,
		confirmGroups:   confirmGroups,
		changeDecisions: changeDecisions,
		exportJobs:      exportJobs,
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

// RecordCacheLookup records a quota cache lookup outcome.
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

// RecordPoolTransition counts a pool entry state change.
func (m *MetricsService) RecordPoolTransition(state string) {
	if m == nil {
		return
	}
	m.poolTransitions.WithLabelValues(state).Inc()
}

// RecordConfirmGroup counts a processed confirmation group.
func (m *MetricsService) RecordConfirmGroup(outcome string) {
	if m == nil {
		return
	}
	m.confirmGroups.WithLabelValues(outcome).Inc()
}

// RecordChangeDecision counts a change request review decision.
func (m *MetricsService) RecordChangeDecision(decision string) {
	if m == nil {
		return
	}
	m.changeDecisions.WithLabelValues(decision).Inc()
}

// RecordExportJob counts a roster export job reaching a final status.
func (m *MetricsService) RecordExportJob(status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(status).Inc()
}
