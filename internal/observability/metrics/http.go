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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatTurnsTotal       *prometheus.CounterVec
	chatTopicTotal       *prometheus.CounterVec
	chatFallbacksTotal   *prometheus.CounterVec
	chatMaterialContext  *prometheus.CounterVec
	chatDuration         *prometheus.HistogramVec
	summaryRefreshTotal  *prometheus.CounterVec
	generationRunsTotal  *prometheus.CounterVec
	generationItems      *prometheus.HistogramVec
	generationDuration   *prometheus.HistogramVec
	uploadedAttachments  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratatutor",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ratatutor",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome.",
		},
		[]string{"service", "status"},
	)
	chatTopicTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "chat",
			Name:      "topic_total",
			Help:      "Total chat turns by detected topic.",
		},
		[]string{"service", "topic"},
	)
	chatFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "chat",
			Name:      "context_fallbacks_total",
			Help:      "Total chat turns answered from a degraded context.",
		},
		[]string{"service"},
	)
	chatMaterialContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "chat",
			Name:      "material_context_total",
			Help:      "Total chat turns by whether material text was included.",
		},
		[]string{"service", "included"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratatutor",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Chat turn duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	summaryRefreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "chat",
			Name:      "summary_refresh_total",
			Help:      "Total rolling summary refreshes by outcome.",
		},
		[]string{"service", "status"},
	)
	generationRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "generation",
			Name:      "runs_total",
			Help:      "Total content generation runs by kind and outcome.",
		},
		[]string{"service", "kind", "status"},
	)
	generationItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratatutor",
			Subsystem: "generation",
			Name:      "items",
			Help:      "Distribution of generated items per successful run.",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20},
		},
		[]string{"service", "kind"},
	)
	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratatutor",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Generation run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	uploadedAttachments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratatutor",
			Subsystem: "materials",
			Name:      "attachments_uploaded_total",
			Help:      "Total uploaded attachments by file extension.",
		},
		[]string{"service", "extension"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatTurnsTotal,
		chatTopicTotal,
		chatFallbacksTotal,
		chatMaterialContext,
		chatDuration,
		summaryRefreshTotal,
		generationRunsTotal,
		generationItems,
		generationDuration,
		uploadedAttachments,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		chatTurnsTotal:      chatTurnsTotal,
		chatTopicTotal:      chatTopicTotal,
		chatFallbacksTotal:  chatFallbacksTotal,
		chatMaterialContext: chatMaterialContext,
		chatDuration:        chatDuration,
		summaryRefreshTotal: summaryRefreshTotal,
		generationRunsTotal: generationRunsTotal,
		generationItems:     generationItems,
		generationDuration:  generationDuration,
		uploadedAttachments: uploadedAttachments,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/materials/"):
		rest := strings.TrimPrefix(path, "/v1/materials/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/v1/materials/{material_id}/" + rest[i+1:]
		}
		return "/v1/materials/{material_id}"
	case strings.HasPrefix(path, "/v1/conversations/"):
		rest := strings.TrimPrefix(path, "/v1/conversations/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/v1/conversations/{conversation_id}/" + rest[i+1:]
		}
		return "/v1/conversations/{conversation_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatTurn(service, topic string, usedMaterial, degraded bool, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.chatTurnsTotal.WithLabelValues(service, status).Inc()
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())

	if err != nil {
		return
	}
	if topic == "" {
		topic = "general"
	}
	m.chatTopicTotal.WithLabelValues(service, topic).Inc()
	m.chatMaterialContext.WithLabelValues(service, strconv.FormatBool(usedMaterial)).Inc()
	if degraded {
		m.chatFallbacksTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordSummaryRefresh(service string, refreshed bool) {
	status := "skipped"
	if refreshed {
		status = "refreshed"
	}
	m.summaryRefreshTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordGenerationRun(service, kind string, items int, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.generationRunsTotal.WithLabelValues(service, kind, status).Inc()
	m.generationDuration.WithLabelValues(service, kind).Observe(duration.Seconds())
	if err == nil && items > 0 {
		m.generationItems.WithLabelValues(service, kind).Observe(float64(items))
	}
}

func (m *HTTPServerMetrics) RecordAttachmentUpload(service, extension string) {
	if extension == "" {
		extension = "unknown"
	}
	m.uploadedAttachments.WithLabelValues(service, extension).Inc()
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
