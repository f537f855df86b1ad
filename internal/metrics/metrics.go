// Package metrics exposes the Prometheus instruments of the indexing
// pipeline. Collectors register themselves on the default registry and are
// served through the API server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed counts successfully resolved events by decoded kind
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_events_processed_total",
		Help: "Number of decoded events resolved into entities, by event kind.",
	}, []string{"kind"})

	// EventErrors counts events skipped because their resolver failed
	EventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_event_errors_total",
		Help: "Number of events skipped due to a resolver error, by event kind.",
	}, []string{"kind"})

	// DecodeMisses counts logs matching a known topic that fit no known shape
	DecodeMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexer_decode_misses_total",
		Help: "Number of logs that matched a known topic but no known event shape.",
	})

	// BatchesProcessed counts completed batches
	BatchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexer_batches_processed_total",
		Help: "Number of batches processed to completion.",
	})

	// BatchFailures counts batches aborted before reaching DONE
	BatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexer_batch_failures_total",
		Help: "Number of batches aborted by a prefetch or flush failure.",
	})

	// FlushDuration observes the wall time of the batch flush phase
	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "indexer_flush_duration_seconds",
		Help:    "Duration of the batch flush phase in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// LastIndexedBlock tracks the highest block committed by a flush
	LastIndexedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "indexer_last_indexed_block",
		Help: "Highest block number committed by a completed batch.",
	})

	// TransfersPublished counts transfer notifications published to the stream
	TransfersPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_transfers_published_total",
		Help: "Number of transfer notifications published, by token standard.",
	}, []string{"standard"})
)
