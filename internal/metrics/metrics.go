package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects pipeline and model-call observability signals.
type Metrics struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	evaluationScore  prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docextract",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Documents processed by document type and status.",
		},
		[]string{"document_type", "status"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docextract",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Per-document pipeline duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	evaluationScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docextract",
			Subsystem: "evaluate",
			Name:      "score",
			Help:      "Composite evaluation scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	registry.MustRegister(documentsTotal, pipelineDuration, evaluationScore)

	return &Metrics{
		registry:         registry,
		documentsTotal:   documentsTotal,
		pipelineDuration: pipelineDuration,
		evaluationScore:  evaluationScore,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDocument(documentType, status string, elapsed time.Duration) {
	m.documentsTotal.WithLabelValues(documentType, status).Inc()
	m.pipelineDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveEvaluation(score float64) {
	m.evaluationScore.Observe(score)
}
