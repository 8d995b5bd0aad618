package metrics

import "github.com/prometheus/client_golang/prometheus"

// Encoder Prometheus metrics.
var (
	EncoderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoplens",
			Name:      "encoder_requests_total",
			Help:      "Total number of embedding model requests",
		},
		[]string{"model", "kind", "status"},
	)

	EncoderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoplens",
			Name:      "encoder_request_duration_seconds",
			Help:      "Embedding model request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model", "kind"},
	)

	EncoderBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoplens",
			Name:      "encoder_batch_size",
			Help:      "Number of inputs per embedding model request",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"model", "kind"},
	)
)

var encoderMetricsRegistered bool

// RegisterEncoderMetrics registers encoder metrics. Must be called once from main.
func RegisterEncoderMetrics() {
	if encoderMetricsRegistered {
		return
	}
	prometheus.MustRegister(EncoderRequestsTotal)
	prometheus.MustRegister(EncoderRequestDuration)
	prometheus.MustRegister(EncoderBatchSize)
	encoderMetricsRegistered = true
}
