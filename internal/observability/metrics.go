package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	SynthesisLatency   prometheus.Histogram
	FirstChunkLatency  prometheus.Histogram
	SynthesizedChunks  prometheus.Counter
	ActiveStreams      prometheus.Gauge
	CollaboratorErrors *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		SynthesisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_latency_ms",
			Help:      "Wall time of individual synthesis engine calls in milliseconds.",
			Buckets:   []float64{50, 100, 200, 400, 800, 1500, 3000, 6000},
		}),
		FirstChunkLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_chunk_latency_ms",
			Help:      "Latency from stream request to first audio chunk in milliseconds.",
			Buckets:   []float64{100, 200, 300, 500, 700, 1000, 1500, 2500},
		}),
		SynthesizedChunks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_chunks_total",
			Help:      "Audio chunks synthesized across all streams.",
		}),
		ActiveStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Streaming TTS responses currently in flight.",
		}),
		CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Failures from external collaborators by name.",
		}, []string{"collaborator"}),
	}
}

func (m *Metrics) ObserveSynthesis(d time.Duration) {
	m.SynthesisLatency.Observe(float64(d.Milliseconds()))
	m.SynthesizedChunks.Inc()
}

func (m *Metrics) ObserveFirstChunk(d time.Duration) {
	m.FirstChunkLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
