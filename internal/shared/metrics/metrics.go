package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	importRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campaign_import",
		Subsystem: "validation",
		Name:      "records_total",
		Help:      "Parsed records broken down by product type and validity after resolution.",
	}, []string{"product_type", "result"})

	skippedSheets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campaign_import",
		Subsystem: "validation",
		Name:      "skipped_sheets_total",
		Help:      "Sheets skipped during routing broken down by reason.",
	}, []string{"reason"})

	deployRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campaign_import",
		Subsystem: "deploy",
		Name:      "records_total",
		Help:      "Upserted records broken down by product type and outcome.",
	}, []string{"product_type", "outcome"})

	batchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campaign_import",
		Subsystem: "pipeline",
		Name:      "batch_failures_total",
		Help:      "Batch-level failures broken down by stage.",
	}, []string{"stage"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campaign_import",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})
)

// ObserveRecords counts validated records for a product type.
func ObserveRecords(productType string, valid, invalid int) {
	if valid > 0 {
		importRecords.WithLabelValues(productType, "valid").Add(float64(valid))
	}
	if invalid > 0 {
		importRecords.WithLabelValues(productType, "invalid").Add(float64(invalid))
	}
}

// IncSkippedSheet counts a sheet skipped during routing.
func IncSkippedSheet(reason string) {
	if reason == "" {
		reason = "other"
	}
	skippedSheets.WithLabelValues(reason).Inc()
}

// IncDeployed counts one upsert outcome ("success" or "failed").
func IncDeployed(productType, outcome string) {
	deployRecords.WithLabelValues(productType, outcome).Inc()
}

// IncBatchFailure counts a batch-level failure in a stage.
func IncBatchFailure(stage string) {
	batchFailures.WithLabelValues(stage).Inc()
}

// ObserveStage records how long a stage took since start.
func ObserveStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
