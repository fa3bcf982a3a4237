package telemetry

// Histogram bucket definitions for different latency profiles
var (
	// EvaluateBuckets for in-memory match decisions
	EvaluateBuckets = []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005}

	// PublishBuckets for sink round trips
	PublishBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

// Filter Metrics
var (
	// ItemsTotal counts evaluated items by event and decision reason
	ItemsTotal CounterVec = noopCounterVec{}

	// EvaluateSeconds measures the time spent deciding one item
	EvaluateSeconds Histogram = NoopStat{}

	// SubscribedEvents tracks the number of events in the compiled table
	SubscribedEvents Gauge = NoopStat{}

	// CacheHitsTotal counts decision cache hits
	CacheHitsTotal Counter = NoopStat{}

	// CacheMissesTotal counts decision cache misses
	CacheMissesTotal Counter = NoopStat{}

	// CacheEntries tracks the number of cached decisions
	CacheEntries Gauge = NoopStat{}
)

// Pipeline Metrics
var (
	// DecodeErrorsTotal counts records whose event and path could not be read
	DecodeErrorsTotal CounterVec = noopCounterVec{}

	// PublishDurationSeconds measures successful publish latency by sink
	PublishDurationSeconds HistogramVec = noopHistogramVec{}

	// PublishRetriesTotal counts publish retries by pipeline
	PublishRetriesTotal CounterVec = noopCounterVec{}

	// PublishFailuresTotal counts records dropped after exhausting retries
	PublishFailuresTotal CounterVec = noopCounterVec{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	ItemsTotal = NewCounterVec(
		"filter",
		"items_total",
		"Items evaluated by event and decision reason",
		[]string{"event", "reason"},
	)
	EvaluateSeconds = NewHistogramWithBuckets(
		"filter",
		"evaluate_seconds",
		"Time spent deciding a single item in seconds",
		EvaluateBuckets,
	)
	SubscribedEvents = NewGauge(
		"filter",
		"subscribed_events",
		"Number of events in the compiled subscription table",
	)
	CacheHitsTotal = NewCounter(
		"cache",
		"hits_total",
		"Decision cache hits",
	)
	CacheMissesTotal = NewCounter(
		"cache",
		"misses_total",
		"Decision cache misses",
	)
	CacheEntries = NewGauge(
		"cache",
		"entries",
		"Number of cached decisions",
	)

	DecodeErrorsTotal = NewCounterVec(
		"pipeline",
		"decode_errors_total",
		"Records whose event and path could not be read",
		[]string{"pipeline"},
	)
	PublishDurationSeconds = NewHistogramVec(
		"pipeline",
		"publish_duration_seconds",
		"Publish latency in seconds",
		[]string{"pipeline"},
		PublishBuckets,
	)
	PublishRetriesTotal = NewCounterVec(
		"pipeline",
		"publish_retries_total",
		"Publish retries",
		[]string{"pipeline"},
	)
	PublishFailuresTotal = NewCounterVec(
		"pipeline",
		"publish_failures_total",
		"Records dropped after exhausting publish retries",
		[]string{"pipeline"},
	)
}
