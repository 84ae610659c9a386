package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventCore metrics
	EventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_events_appended_total",
			Help: "Total number of events appended, by topic",
		},
		[]string{"topic"},
	)

	EventsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_events_delivered_total",
			Help: "Total number of event deliveries to a subscriber handler, by topic and outcome",
		},
		[]string{"topic", "subscriber_id", "outcome"},
	)

	SubscriberCursorLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lute_subscriber_cursor_lag",
			Help: "Number of entries between a subscriber's cursor and the topic head",
		},
		[]string{"topic", "subscriber_id"},
	)

	SubscriberDeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lute_subscriber_delivery_duration_seconds",
			Help:    "Time spent delivering a batch to a subscriber handler",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic", "subscriber_id"},
	)

	// Sched metrics
	JobsClaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_jobs_claimed_total",
			Help: "Total number of jobs claimed for execution, by job name",
		},
		[]string{"name"},
	)

	JobExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lute_job_execution_duration_seconds",
			Help:    "Time spent executing a claimed job",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"name"},
	)

	JobsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lute_jobs_pending",
			Help: "Number of jobs whose next execution time has passed but are unclaimed",
		},
	)

	// CrawlerCore metrics
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lute_crawler_queue_depth",
			Help: "Number of pending queue items, by priority",
		},
		[]string{"priority"},
	)

	ItemsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_crawler_items_enqueued_total",
			Help: "Total number of items enqueued, by priority and outcome (new, upgraded, duplicate)",
		},
		[]string{"priority", "outcome"},
	)

	ItemsClaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_crawler_items_claimed_total",
			Help: "Total number of items claimed for crawling",
		},
		[]string{"priority"},
	)

	ClaimsExpiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_crawler_claims_expired_total",
			Help: "Total number of claims swept for exceeding their TTL",
		},
		[]string{"priority"},
	)

	CrawlerStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lute_crawler_status",
			Help: "1 if the crawler is currently in the named status, else 0",
		},
		[]string{"status"},
	)

	// Index metrics
	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_index_documents_indexed_total",
			Help: "Total number of documents indexed, by collection",
		},
		[]string{"collection"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lute_index_search_duration_seconds",
			Help:    "Time spent executing a similarity search",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lute_index_search_results_returned",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// EmbedCore metrics
	EmbeddingsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_embeddings_generated_total",
			Help: "Total number of embeddings generated, by provider",
		},
		[]string{"provider"},
	)

	EmbeddingCacheHitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_embedding_cache_hit_total",
			Help: "Total number of embedding pipeline runs that hit the content-hash cache, by provider and outcome (hit, miss)",
		},
		[]string{"provider", "outcome"},
	)

	ProviderHealthGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lute_embedding_provider_healthy",
			Help: "1 if the embedding provider is currently healthy, else 0",
		},
		[]string{"provider"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lute_embedding_provider_request_duration_seconds",
			Help:    "Time spent in a single provider.Generate call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// Parser Dispatch metrics
	FilesParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_files_parsed_total",
			Help: "Total number of files dispatched to a parser, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lute_api_requests_total",
			Help: "Total number of gRPC requests, by method and status code",
		},
		[]string{"method", "code"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lute_api_request_duration_seconds",
			Help:    "gRPC request latency, by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(EventsAppendedTotal)
	prometheus.MustRegister(EventsDeliveredTotal)
	prometheus.MustRegister(SubscriberCursorLag)
	prometheus.MustRegister(SubscriberDeliveryDuration)
	prometheus.MustRegister(JobsClaimedTotal)
	prometheus.MustRegister(JobExecutionDuration)
	prometheus.MustRegister(JobsPending)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(ItemsEnqueuedTotal)
	prometheus.MustRegister(ItemsClaimedTotal)
	prometheus.MustRegister(ClaimsExpiredTotal)
	prometheus.MustRegister(CrawlerStatusGauge)
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(EmbeddingsGeneratedTotal)
	prometheus.MustRegister(EmbeddingCacheHitTotal)
	prometheus.MustRegister(ProviderHealthGauge)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(FilesParsedTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
