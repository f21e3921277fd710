package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and task
// lifecycle events.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	tasksSubmitted  *prometheus.CounterVec
	tasksFinished   *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polisight",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polisight",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	tasksSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polisight",
		Subsystem: "tasks",
		Name:      "submitted_total",
		Help:      "Total number of tasks submitted to the registry.",
	}, []string{"kind"})

	tasksFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polisight",
		Subsystem: "tasks",
		Name:      "finished_total",
		Help:      "Total number of tasks that reached a terminal status.",
	}, []string{"kind", "status"})

	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polisight",
		Subsystem: "tasks",
		Name:      "duration_seconds",
		Help:      "Execution duration of task operations.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"kind"})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, tasksSubmitted, tasksFinished, taskDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		tasksSubmitted:  tasksSubmitted,
		tasksFinished:   tasksFinished,
		taskDuration:    taskDuration,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// TaskSubmitted records a task submission. Satisfies tasks.MetricsRecorder.
func (c *Collector) TaskSubmitted(kind string) {
	c.tasksSubmitted.WithLabelValues(kind).Inc()
}

// TaskFinished records a task reaching a terminal status.
func (c *Collector) TaskFinished(kind string, status string, duration time.Duration) {
	c.tasksFinished.WithLabelValues(kind, status).Inc()
	c.taskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
