package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch results recorded in FetchesTotal.
const (
	resultOK       = "ok"
	resultError    = "error"
	resultCacheHit = "cache_hit"
)

var (
	// FetchesTotal counts dataset loads by outcome.
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seafood_pipeline_fetches_total",
		Help: "Dataset loads by dataset and result (ok, error, cache_hit)",
	}, []string{"dataset", "result"})

	// StaleResponsesTotal counts fetch results dropped because a newer
	// request had been issued.
	StaleResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seafood_pipeline_stale_responses_total",
		Help: "Fetch results discarded because a newer request superseded them",
	}, []string{"dataset"})

	// FetchDuration observes how long FetchFunc calls take.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seafood_pipeline_fetch_duration_seconds",
		Help:    "Duration of dataset fetches",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"dataset"})

	// DatasetRecords reports the size of the active dataset.
	DatasetRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "seafood_pipeline_dataset_records",
		Help: "Number of records in the active dataset",
	}, []string{"dataset"})
)
