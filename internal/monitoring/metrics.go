package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. Each instance owns
// its registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	ExtractionAttempts *prometheus.CounterVec
	LLMRequests        *prometheus.CounterVec
	FactChecks         *prometheus.CounterVec
	FactCheckDuration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ExtractionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verdict_extraction_attempts_total",
			Help: "Platform strategy attempts by outcome",
		}, []string{"strategy", "outcome"}), // outcome: ok, empty, error
		LLMRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verdict_llm_requests_total",
			Help: "Reasoning service calls by upstream status",
		}, []string{"status"}),
		FactChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verdict_factchecks_total",
			Help: "Completed fact-checks by input kind",
		}, []string{"kind"}),
		FactCheckDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verdict_factcheck_duration_seconds",
			Help:    "Fact-check latency by input kind",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveExtraction(strategy, outcome string) {
	m.ExtractionAttempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) ObserveLLM(status string) {
	m.LLMRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveFactCheck(kind string, took time.Duration) {
	m.FactChecks.WithLabelValues(kind).Inc()
	m.FactCheckDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// Handler serves this instance's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
