package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors de la app en un registry propio
// (los tests crean varios routers en el mismo proceso).
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	backendCalls *prometheus.HistogramVec
	scanOutcomes *prometheus.CounterVec
	cameraLeases prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		backendCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_backend_call_duration_seconds",
			Help:    "Latency of calls to the backend service.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_scan_outcomes_total",
			Help: "Scanner events by outcome (no_code, invalid, navigate, manual, camera_error).",
		}, []string{"outcome"}),
		cameraLeases: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_camera_leases_active",
			Help: "Camera streams currently held by scanner sessions.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.backendCalls,
		m.scanOutcomes,
		m.cameraLeases,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware etiqueta por patrón de ruta de chi para no explotar cardinalidad con IDs.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveBackend tiene la firma de httpclient.ObserveFunc.
func (m *Metrics) ObserveBackend(method, _ string, status int, elapsed time.Duration) {
	m.backendCalls.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) ScanOutcome(outcome string) {
	m.scanOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CameraAcquired() { m.cameraLeases.Inc() }
func (m *Metrics) CameraReleased() { m.cameraLeases.Dec() }
