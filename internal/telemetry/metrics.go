package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_gateway"

// Metrics holds the gateway's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	routes       *prometheus.CounterVec
	lookups      *prometheus.CounterVec
	agentRuns    *prometheus.CounterVec
	agentLatency prometheus.Histogram
	threads      prometheus.Counter
	requests     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
}

// NewMetrics registers all collectors, including Go runtime and process metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Utterances routed, by route kind.",
		}, []string{"kind"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_lookups_total",
			Help:      "Knowledge base lookups, by outcome.",
		}, []string{"outcome"}),
		agentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Agent runs, by final status.",
		}, []string{"status"}),
		agentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_run_duration_seconds",
			Help:      "Time from posting a prompt to reading the reply.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		threads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_created_total",
			Help:      "Conversation threads created for new sessions.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by handler and status code.",
		}, []string{"handler", "code"}),
		reqLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by handler.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.routes,
		m.lookups,
		m.agentRuns,
		m.agentLatency,
		m.threads,
		m.requests,
		m.reqLatency,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRoute counts a routing decision
func (m *Metrics) ObserveRoute(kind, outcome string) {
	m.routes.WithLabelValues(kind).Inc()
	if outcome != "" && outcome != "none" {
		m.lookups.WithLabelValues(outcome).Inc()
	}
}

// ObserveAgentRun counts a finished run and its duration
func (m *Metrics) ObserveAgentRun(status string, d time.Duration) {
	m.agentRuns.WithLabelValues(status).Inc()
	m.agentLatency.Observe(d.Seconds())
}

// ObserveThreadCreated counts a new conversation thread
func (m *Metrics) ObserveThreadCreated() {
	m.threads.Inc()
}

// Instrument wraps next, recording its status codes and latency under name
func (m *Metrics) Instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		m.reqLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
