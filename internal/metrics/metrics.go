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
			Namespace: "gigdash",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gigdash",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gigdash",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	accessDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gigdash",
			Subsystem: "rbac",
			Name:      "decisions_total",
			Help:      "Permission checks by permission and outcome.",
		},
		[]string{"permission", "allowed"},
	)

	assistantToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gigdash",
			Subsystem: "assistant",
			Name:      "tool_calls_total",
			Help:      "GigBot tool invocations by tool and outcome.",
		},
		[]string{"tool", "success"},
	)

	assistantDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gigdash",
			Subsystem: "assistant",
			Name:      "chat_duration_seconds",
			Help:      "Duration of GigBot chat turns including tool rounds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	recommendationRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gigdash",
			Subsystem: "recommend",
			Name:      "runs_total",
			Help:      "Number of company recommendation runs.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		accessDecisions,
		assistantToolCalls,
		assistantDuration,
		recommendationRuns,
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

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordAccessDecision counts an RBAC permission check.
func RecordAccessDecision(permission string, allowed bool) {
	accessDecisions.WithLabelValues(permission, strconv.FormatBool(allowed)).Inc()
}

// RecordToolCall counts a GigBot tool invocation.
func RecordToolCall(tool string, success bool) {
	if tool == "" {
		tool = "unknown"
	}
	assistantToolCalls.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
}

// ObserveChat records the duration of one GigBot chat turn.
func ObserveChat(d time.Duration) {
	assistantDuration.Observe(d.Seconds())
}

// RecordRecommendation counts a recommendation run.
func RecordRecommendation() {
	recommendationRuns.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// canonicalPath collapses numeric ids so label cardinality stays bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
