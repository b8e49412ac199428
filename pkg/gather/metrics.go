package gather

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatherDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depscope_gather_duration_seconds",
			Help:    "Time taken to gather a complete deployment report",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	gatherTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depscope_gather_total",
			Help: "Total number of report gathering attempts",
		},
		[]string{"status"}, // success or error
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depscope_gather_stage_duration_seconds",
			Help:    "Time taken by individual pipeline stages",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"stage"}, // fetch, normalize, resolve, enrich, assemble
	)

	recordCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "depscope_report_records",
			Help: "Number of resource records in the last gathered report",
		},
	)
)
