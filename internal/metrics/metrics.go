package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so servers and tests do not collide on the
// process-wide default.
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Exports         *prometheus.CounterVec
	ExportBytes     *prometheus.HistogramVec
	ExportQuestions prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examlab_exports_total",
				Help: "Exports and imports by format and outcome",
			},
			[]string{"format", "result"},
		),
		ExportBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "examlab_export_bytes",
				Help:    "Size of produced export documents",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),
		ExportQuestions: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "examlab_export_questions",
				Help:    "Questions per export",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
		),
	}
	m.Registry.MustRegister(m.RequestCounter, m.RequestDuration, m.Exports, m.ExportBytes, m.ExportQuestions)
	return m
}

// ObserveExport records one export or import. A nil receiver is a no-op.
func (m *Metrics) ObserveExport(format string, err error, size, questions int) {
	if m == nil {
		return
	}
	if err != nil {
		m.Exports.WithLabelValues(format, "error").Inc()
		return
	}
	m.Exports.WithLabelValues(format, "ok").Inc()
	m.ExportBytes.WithLabelValues(format).Observe(float64(size))
	m.ExportQuestions.Observe(float64(questions))
}

// Middleware labels requests by their chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
