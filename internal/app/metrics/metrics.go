package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "burnledger",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burnledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "burnledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	burnsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burnledger",
			Subsystem: "burns",
			Name:      "processed_total",
			Help:      "Total number of burn operations processed.",
		},
		[]string{"status"},
	)

	burnedAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "burnledger",
			Subsystem: "burns",
			Name:      "amount_total",
			Help:      "Total burned amount in base units.",
		},
	)

	transfersIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burnledger",
			Subsystem: "ingest",
			Name:      "transfers_total",
			Help:      "Total number of inbound transfer notifications.",
		},
		[]string{"source", "outcome"},
	)

	sweptComments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "burnledger",
			Subsystem: "sweeper",
			Name:      "comments_deleted_total",
			Help:      "Total number of comments deleted during partition sweeps.",
		},
	)

	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burnledger",
			Subsystem: "dispatch",
			Name:      "actions_total",
			Help:      "Total number of outbound chain action dispatches.",
		},
		[]string{"action", "outcome"},
	)

	dispatchQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "burnledger",
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Current number of queued outbound chain actions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		burnsProcessed,
		burnedAmount,
		transfersIngested,
		sweptComments,
		dispatches,
		dispatchQueueDepth,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordBurn records a processed burn operation and its base-unit amount.
func RecordBurn(status string, amount int64) {
	burnsProcessed.WithLabelValues(status).Inc()
	if amount > 0 {
		burnedAmount.Add(float64(amount))
	}
}

// RecordIngest records an inbound transfer notification and its outcome.
func RecordIngest(source, outcome string) {
	transfersIngested.WithLabelValues(source, outcome).Inc()
}

// RecordSweep records the number of comments deleted in a sweep batch.
func RecordSweep(n int) {
	if n > 0 {
		sweptComments.Add(float64(n))
	}
}

// RecordDispatch records an outbound chain action dispatch attempt.
func RecordDispatch(action, outcome string) {
	if action == "" {
		action = "unknown"
	}
	dispatches.WithLabelValues(action, outcome).Inc()
}

// SetDispatchQueueDepth reports the current outbound queue depth.
func SetDispatchQueueDepth(n int) {
	dispatchQueueDepth.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "proposals":
		if len(parts) == 1 {
			return "/proposals"
		}
		if len(parts) == 2 {
			return "/proposals/:id"
		}
		return "/proposals/:id/" + parts[2]
	case "balances":
		if len(parts) == 1 {
			return "/balances"
		}
		return "/balances/:account"
	default:
		return "/" + parts[0]
	}
}
