package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	runTotal        *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runInFlight     prometheus.Gauge
	modelsProcessed *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "process_runs_total",
			Help:      "Total processing runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "process_run_duration_seconds",
			Help:      "Processing run duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "process_runs_in_flight",
			Help:      "Number of in-flight processing runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	modelsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "models_total",
			Help:      "Total model result files by outcome.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(runTotal, runDuration, runInFlight, modelsProcessed)

	return &WorkerMetrics{
		registry:        registry,
		runTotal:        runTotal,
		runDuration:     runDuration,
		runInFlight:     runInFlight,
		modelsProcessed: modelsProcessed,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.runInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, processed, failed int, err error) {
	m.runInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if processed > 0 {
		m.modelsProcessed.WithLabelValues(service, "success").Add(float64(processed))
	}
	if failed > 0 {
		m.modelsProcessed.WithLabelValues(service, "error").Add(float64(failed))
	}
}
