// Package metrics exposes Prometheus metrics for the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace       = "htmlcleaner"
	SubsystemHTTP   = "http"
	SubsystemEngine = "engine"
)

// Token outcomes recorded by ObserveTransform.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	apiTime       *prometheus.HistogramVec
	documents     prometheus.Counter
	openDocuments prometheus.Gauge
	tokens        *prometheus.CounterVec
}

// New creates a registry with the Go and process collectors and the
// htmlcleaner metrics.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemHTTP,
			Name:      "request_duration_seconds",
			Help:      "Time to execute the api handler",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.documents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemEngine,
		Name:      "documents_analyzed_total",
		Help:      "The total number of analyzed documents.",
	})
	m.registry.MustRegister(m.documents)

	m.openDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: SubsystemEngine,
		Name:      "open_documents",
		Help:      "The number of documents held by the server.",
	})
	m.registry.MustRegister(m.openDocuments)

	m.tokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemEngine,
			Name:      "transform_tokens_total",
			Help:      "Transformation tokens by outcome.",
		},
		[]string{"outcome"},
	)
	m.registry.MustRegister(m.tokens)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.apiTime.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// DocumentOpened counts an analyzed document and tracks it as open.
func (m *Metrics) DocumentOpened() {
	m.documents.Inc()
	m.openDocuments.Inc()
}

func (m *Metrics) DocumentClosed() {
	m.openDocuments.Dec()
}

// ObserveTransform records the outcome of one ApplyTransformations call.
func (m *Metrics) ObserveTransform(applied, skipped int) {
	m.tokens.WithLabelValues(OutcomeApplied).Add(float64(applied))
	m.tokens.WithLabelValues(OutcomeSkipped).Add(float64(skipped))
}
