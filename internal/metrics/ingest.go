package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestProductsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoplens",
			Name:      "ingest_products_total",
			Help:      "Products processed by the indexing flow",
		},
		[]string{"result"}, // "indexed" / "already_indexed" / "nothing_to_index" / "error"
	)

	IngestImagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoplens",
			Name:      "ingest_images_total",
			Help:      "Images handled during indexing",
		},
		[]string{"result"}, // "embedded" / "fetch_failed" / "skipped_existing"
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shoplens",
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end indexing duration per product",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestProductsTotal)
	prometheus.MustRegister(IngestImagesTotal)
	prometheus.MustRegister(IngestDuration)
	ingestMetricsRegistered = true
}
