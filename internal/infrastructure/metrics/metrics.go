package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the archive service
type Metrics struct {
	// Ingestion metrics
	SyncCyclesTotal     prometheus.Counter
	SyncErrors          *prometheus.CounterVec
	SyncDuration        prometheus.Histogram
	ItemsArchived       *prometheus.CounterVec
	FeedPagesFetched    *prometheus.CounterVec
	ThreadDepthExceeded prometheus.Counter

	// Read-path metrics
	SearchRequestsTotal prometheus.Counter
	SearchCacheHits     prometheus.Counter
	SearchDuration      prometheus.Histogram

	// Kafka metrics
	KafkaEventsProduced prometheus.Counter
	KafkaProduceErrors  prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		SyncCyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nightwatch_sync_cycles_total",
			Help: "Total number of sync cycles started",
		}),
		SyncErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightwatch_sync_errors_total",
				Help: "Total number of per-source sync failures",
			},
			[]string{"platform"},
		),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nightwatch_sync_duration_seconds",
			Help:    "Duration of full sync cycles in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		ItemsArchived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightwatch_items_archived_total",
				Help: "Total number of content items written to the archive",
			},
			[]string{"platform"},
		),
		FeedPagesFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightwatch_feed_pages_fetched_total",
				Help: "Total number of provider pages fetched",
			},
			[]string{"platform"},
		),
		ThreadDepthExceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nightwatch_thread_depth_exceeded_total",
			Help: "Messages whose reply chain exceeded the resolver depth cap",
		}),

		SearchRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nightwatch_search_requests_total",
			Help: "Total number of search requests served",
		}),
		SearchCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nightwatch_search_cache_hits_total",
			Help: "Search requests answered from the response cache",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nightwatch_search_duration_seconds",
			Help:    "Duration of search requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		KafkaEventsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nightwatch_kafka_events_produced_total",
			Help: "Total number of archived-content events produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nightwatch_kafka_produce_errors_total",
			Help: "Total number of Kafka produce errors",
		}),
	}
}

// IncItemsArchived records items written to the archive for a platform
func (m *Metrics) IncItemsArchived(platform string, count int) {
	if count > 0 {
		m.ItemsArchived.WithLabelValues(platform).Add(float64(count))
	}
}

// IncFeedPage records one fetched provider page
func (m *Metrics) IncFeedPage(platform string) {
	m.FeedPagesFetched.WithLabelValues(platform).Inc()
}

// IncThreadDepthExceeded records messages degraded to singleton roots
func (m *Metrics) IncThreadDepthExceeded(count int) {
	if count > 0 {
		m.ThreadDepthExceeded.Add(float64(count))
	}
}

// RecordSyncCycle records a completed sync cycle
func (m *Metrics) RecordSyncCycle(duration float64) {
	m.SyncCyclesTotal.Inc()
	m.SyncDuration.Observe(duration)
}

// RecordSyncError records a per-source sync failure
func (m *Metrics) RecordSyncError(platform string) {
	m.SyncErrors.WithLabelValues(platform).Inc()
}

// RecordSearch records a served search request
func (m *Metrics) RecordSearch(duration float64, cacheHit bool) {
	m.SearchRequestsTotal.Inc()
	m.SearchDuration.Observe(duration)
	if cacheHit {
		m.SearchCacheHits.Inc()
	}
}

// RecordKafkaEvent records a produced archived-content event
func (m *Metrics) RecordKafkaEvent() {
	m.KafkaEventsProduced.Inc()
}

// RecordKafkaError records a Kafka produce error
func (m *Metrics) RecordKafkaError() {
	m.KafkaProduceErrors.Inc()
}
