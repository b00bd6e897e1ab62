package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are registered once on the default registry and exposed on /metrics.
var (
	FramesSampled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanner_frames_sampled_total",
			Help: "Frames captured by the scan loop",
		},
	)

	DecodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanner_decode_failures_total",
			Help: "Frames where barcode detection failed or found nothing",
		},
	)

	CodesEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_codes_total",
			Help: "Decoded barcodes by outcome (emitted, debounced, rejected)",
		},
		[]string{"outcome"},
	)

	ScannerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_active",
			Help: "1 while a scan loop is running",
		},
	)

	WorkflowOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_workflow_outcomes_total",
			Help: "Scan workflow results by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	NotificationsPushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_pushed_total",
			Help: "Notifications pushed by kind",
		},
		[]string{"kind"},
	)

	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_store_call_duration_seconds",
			Help:    "Duration of catalog store calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)

	LowStockProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_low_stock_products",
			Help: "Products currently flagged as low stock",
		},
	)
)

func init() {
	prometheus.MustRegister(
		FramesSampled,
		DecodeFailures,
		CodesEmitted,
		ScannerActive,
		WorkflowOutcomes,
		NotificationsPushed,
		StoreLatency,
		LowStockProducts,
	)
}
