package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the recognition pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	recognitions    *prometheus.CounterVec
	marks           *prometheus.CounterVec
	trainingRuns    *prometheus.CounterVec
	trainingSeconds prometheus.Observer
	framesSampled   prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	recognitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recognition_attempts_total",
		Help: "Recognition attempts by outcome",
	}, []string{"outcome"})

	marks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Attendance marks by source and result",
	}, []string{"source", "result"})

	trainingRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "training_runs_total",
		Help: "Training pipeline runs by result",
	}, []string{"result"})

	trainingSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "training_duration_seconds",
		Help:    "Duration of training pipeline runs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	framesSampled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "live_frames_sampled_total",
		Help: "Frames run through detection by the live sampler",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, recognitions, marks,
		trainingRuns, trainingSeconds, framesSampled, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		recognitions:    recognitions,
		marks:           marks,
		trainingRuns:    trainingRuns,
		trainingSeconds: trainingSeconds,
		framesSampled:   framesSampled,
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

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveRecognition records a recognition attempt outcome:
// matched, no_match or no_face.
func (m *MetricsService) ObserveRecognition(outcome string) {
	if m == nil {
		return
	}
	m.recognitions.WithLabelValues(outcome).Inc()
}

// ObserveMark records an attendance write: result is marked or duplicate.
func (m *MetricsService) ObserveMark(source, result string) {
	if m == nil {
		return
	}
	m.marks.WithLabelValues(source, result).Inc()
}

// ObserveTraining records one finished training run.
func (m *MetricsService) ObserveTraining(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.trainingRuns.WithLabelValues(result).Inc()
	m.trainingSeconds.Observe(duration.Seconds())
}

// ObserveFrameSampled counts one live frame through detection.
func (m *MetricsService) ObserveFrameSampled() {
	if m == nil {
		return
	}
	m.framesSampled.Inc()
}
