package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	preflightTotal    *prometheus.CounterVec
	preflightDuration *prometheus.HistogramVec
	preflightInFlight prometheus.Gauge
	queueLag          *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	preflightTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "worker",
			Name:      "preflight_total",
			Help:      "Total attachment extraction pre-flights by status.",
		},
		[]string{"service", "status"},
	)
	preflightDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratatutor",
			Subsystem: "worker",
			Name:      "preflight_duration_seconds",
			Help:      "Attachment pre-flight duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	preflightInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ratatutor",
			Subsystem: "worker",
			Name:      "preflight_in_flight",
			Help:      "Number of in-flight attachment pre-flights.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratatutor",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between attachment upload and pre-flight start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(preflightTotal, preflightDuration, preflightInFlight, queueLag)

	return &WorkerMetrics{
		registry:          registry,
		preflightTotal:    preflightTotal,
		preflightDuration: preflightDuration,
		preflightInFlight: preflightInFlight,
		queueLag:          queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPreflight() {
	m.preflightInFlight.Inc()
}

func (m *WorkerMetrics) FinishPreflight(service string, duration time.Duration, err error) {
	m.preflightInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.preflightTotal.WithLabelValues(service, status).Inc()
	m.preflightDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
