package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry so several
// servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	VisitsRecorded  prometheus.Counter
	VisitFailures   *prometheus.CounterVec
	SubjectsStored  prometheus.Gauge
}

// NewMetrics registers the service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visitwatch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visitwatch_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		VisitsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "visitwatch_visits_recorded_total",
			Help: "Visits successfully recorded",
		}),
		VisitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visitwatch_visit_failures_total",
			Help: "Visit recordings that failed, by error code",
		}, []string{"code"}),
		SubjectsStored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "visitwatch_subjects",
			Help: "Subjects returned by the last list request",
		}),
	}
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.RequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
	m.RequestTotal.WithLabelValues(method, route, code).Inc()
}

func (m *Metrics) IncVisit() {
	if m != nil {
		m.VisitsRecorded.Inc()
	}
}

func (m *Metrics) IncVisitFailure(code string) {
	if m != nil {
		m.VisitFailures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) SetSubjects(n int) {
	if m != nil {
		m.SubjectsStored.Set(float64(n))
	}
}
