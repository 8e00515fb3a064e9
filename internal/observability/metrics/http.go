package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "etv"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	loadsTotal          *prometheus.CounterVec
	loadDuration        *prometheus.HistogramVec
	documentsLoaded     *prometheus.GaugeVec
	fetchFailuresTotal  *prometheus.CounterVec
	rankingColumnsTotal *prometheus.CounterVec
	sessionsActive      *prometheus.GaugeVec
	eventClients        *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	loadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "loads_total",
			Help:      "Total document load attempts by status.",
		},
		[]string{"service", "status"},
	)
	loadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "load_duration_seconds",
			Help:      "Document load duration in seconds by status.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "status"},
	)
	documentsLoaded := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "loaded",
			Help:      "Number of model documents held in the store.",
		},
		[]string{"service"},
	)
	fetchFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "fetch_failures_total",
			Help:      "Total documents dropped from a load by source kind.",
		},
		[]string{"service", "source"},
	)
	rankingColumnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rankings",
			Name:      "columns_total",
			Help:      "Total ranking columns computed.",
		},
		[]string{"service"},
	)
	sessionsActive := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "viewer",
			Name:      "sessions_active",
			Help:      "Number of live viewer sessions.",
		},
		[]string{"service"},
	)
	eventClients := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "clients",
			Help:      "Number of connected event stream clients.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		loadsTotal,
		loadDuration,
		documentsLoaded,
		fetchFailuresTotal,
		rankingColumnsTotal,
		sessionsActive,
		eventClients,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		loadsTotal:          loadsTotal,
		loadDuration:        loadDuration,
		documentsLoaded:     documentsLoaded,
		fetchFailuresTotal:  fetchFailuresTotal,
		rankingColumnsTotal: rankingColumnsTotal,
		sessionsActive:      sessionsActive,
		eventClients:        eventClients,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds model names and session ids out of the label.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/models/"):
		rest := strings.TrimPrefix(path, "/v1/models/")
		if i := strings.Index(rest, "/"); i >= 0 {
			return "/v1/models/{name}" + rest[i:]
		}
		return "/v1/models/{name}"
	case strings.HasPrefix(path, "/v1/sessions/"):
		parts := strings.Split(strings.TrimPrefix(path, "/v1/sessions/"), "/")
		out := "/v1/sessions/{id}"
		if len(parts) >= 2 {
			out += "/" + parts[1]
		}
		if len(parts) >= 3 && parts[1] != "categories" && parts[1] != "scroll" {
			out += "/{name}"
		}
		if len(parts) >= 4 {
			out += "/" + parts[3]
		}
		return out
	case strings.HasPrefix(path, "/ui/"):
		return "/ui/{id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordLoad(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.loadsTotal.WithLabelValues(service, status).Inc()
	m.loadDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) SetDocumentsLoaded(service string, count int) {
	m.documentsLoaded.WithLabelValues(service).Set(float64(count))
}

func (m *HTTPServerMetrics) RecordFetchFailure(service, source string) {
	if source == "" {
		source = "unknown"
	}
	m.fetchFailuresTotal.WithLabelValues(service, source).Inc()
}

func (m *HTTPServerMetrics) RecordRankingColumns(service string, columns int) {
	if columns <= 0 {
		return
	}
	m.rankingColumnsTotal.WithLabelValues(service).Add(float64(columns))
}

func (m *HTTPServerMetrics) SetSessionsActive(service string, count int) {
	m.sessionsActive.WithLabelValues(service).Set(float64(count))
}

func (m *HTTPServerMetrics) AddEventClients(service string, delta int) {
	m.eventClients.WithLabelValues(service).Add(float64(delta))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
