package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Schedule run outcomes used as metric labels.
const (
	RunOutcomeSuccess   = "success"
	RunOutcomePartial   = "partial"
	RunOutcomeCancelled = "cancelled"
	RunOutcomeAborted   = "aborted"
)

// MetricsService owns the Prometheus registry for HTTP and scheduling metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runTotal        *prometheus.CounterVec
	runDuration     prometheus.Histogram
	coursesTotal    *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	conflictChecks  *prometheus.CounterVec
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

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_schedule_runs_total",
		Help: "Scheduling runs by outcome",
	}, []string{"outcome"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "exam_schedule_run_duration_seconds",
		Help:    "Wall time of scheduling runs",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	coursesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_schedule_courses_total",
		Help: "Courses handled by scheduling runs, by result",
	}, []string{"result"})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_constraint_rejections_total",
		Help: "Candidate slots rejected by teacher constraints, by rule",
	}, []string{"rule"})

	conflictChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_conflict_checks_total",
		Help: "Conflict checks by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runTotal, runDuration, coursesTotal, rejections, conflictChecks, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runTotal:        runTotal,
		runDuration:     runDuration,
		coursesTotal:    coursesTotal,
		rejections:      rejections,
		conflictChecks:  conflictChecks,
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

// ObserveScheduleRun records one finished scheduling run.
func (m *MetricsService) ObserveScheduleRun(outcome string, duration time.Duration, placed, failed int) {
	if m == nil {
		return
	}
	m.runTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.coursesTotal.WithLabelValues("placed").Add(float64(placed))
	m.coursesTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveConstraintRejection counts a candidate slot refused by rule.
func (m *MetricsService) ObserveConstraintRejection(rule string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(rule).Inc()
}

// ObserveConflictCheck counts a conflict check by whether it found a clash.
func (m *MetricsService) ObserveConflictCheck(hasConflict bool) {
	if m == nil {
		return
	}
	result := "clear"
	if hasConflict {
		result = "conflict"
	}
	m.conflictChecks.WithLabelValues(result).Inc()
}
