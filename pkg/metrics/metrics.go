// Package metrics provides Prometheus metrics for the fern sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal tracks completed sync runs by terminal status
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync runs by terminal status",
		},
		[]string{"status"},
	)

	// SyncRunDuration tracks full pipeline duration in seconds
	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of full sync runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	// SyncRejectionsTotal tracks triggers rejected by the single-flight check
	SyncRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "sync",
			Name:      "rejections_total",
			Help:      "Total number of sync triggers rejected because a run was active",
		},
	)

	// SyncRowsTotal tracks rows handled per entity and outcome
	SyncRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "sync",
			Name:      "rows_total",
			Help:      "Total number of source rows handled by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	// SyncBatchWritesTotal tracks batched writes issued to the destination store
	SyncBatchWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "sync",
			Name:      "batch_writes_total",
			Help:      "Total number of destination batch writes by entity",
		},
		[]string{"entity"},
	)
)

// Row outcomes
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
)
