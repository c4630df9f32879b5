// Package metrics provides Prometheus metrics for the gully recommender service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring engine.
	matchesScored    prometheus.Counter
	deliveriesScored prometheus.Counter
	registryMisses   prometheus.Counter
	maidenOvers      prometheus.Counter
	scoringLatency   prometheus.Histogram

	// Valuation engine.
	valuationsComputed prometheus.Counter
	valuationLatency   prometheus.Histogram
	newcomerCredits    prometheus.Counter
	defaultRoleLookups prometheus.Counter

	// Selection solver.
	selectionsSolved     prometheus.Counter
	selectionsInfeasible prometheus.Counter
	solverLatency        prometheus.Histogram
	solverNodesVisited   prometheus.Histogram

	// History store.
	historyRows       prometheus.Gauge
	historyAppends    prometheus.Counter
	storeQueryLatency prometheus.Histogram

	// Ingest pipeline.
	matchesDuplicate prometheus.Counter
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejects     prometheus.Counter
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter

	// Process health.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors stay out of the scrape.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers every metric.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gully",
		subsystem:        "recommender",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat metric registration
	auto := promauto.With(m.registry)

	m.matchesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "matches_scored_total",
		Help: "Total number of matches replayed into fantasy points",
	})
	m.deliveriesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "deliveries_scored_total",
		Help: "Total number of deliveries processed by the scoring engine",
	})
	m.registryMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "registry_misses_total",
		Help: "Deliveries referencing a player absent from the match registry",
	})
	m.maidenOvers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "maiden_overs_total",
		Help: "Maiden-over bonuses awarded",
	})
	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_milliseconds",
		Help:    "Latency of a full match scoring pass in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.valuationsComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "valuations_computed_total",
		Help: "Total number of squad credit valuations computed",
	})
	m.valuationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "valuation_latency_milliseconds",
		Help:    "Latency of a squad credit valuation in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.newcomerCredits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "newcomer_credits_total",
		Help: "Players priced via the newcomer path (fewer than 10 appearances)",
	})
	m.defaultRoleLookups = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "default_role_lookups_total",
		Help: "Role resolutions that fell through to the BAT default",
	})

	m.selectionsSolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "selections_solved_total",
		Help: "Successful XI selections",
	})
	m.selectionsInfeasible = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "selections_infeasible_total",
		Help: "Selection attempts with no legal XI",
	})
	m.solverLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "solver_latency_milliseconds",
		Help:    "Latency of the team selection solver in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.solverNodesVisited = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "solver_nodes_visited",
		Help:    "Search nodes visited per solve",
		Buckets: prometheus.ExponentialBuckets(100, 4, 10),
	})

	m.historyRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "history_rows",
		Help: "Rows in the historical ground-truth store",
	})
	m.historyAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "history_appends_total",
		Help: "Rows appended to the historical store",
	})
	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_query_latency_milliseconds",
		Help:    "Latency of historical store reads in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.matchesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "matches_duplicate_total",
		Help: "Match uploads dropped as already processed",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Current size of the scoring job queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Capacity of the scoring job queue",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Jobs accepted by the scoring queue",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Jobs handed to workers",
	})
	m.queueRejects = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_rejects_total",
		Help: "Jobs rejected due to backpressure or shutdown",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Number of scoring workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_latency_milliseconds",
		Help:    "Per-job worker processing latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Jobs that failed inside a worker",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_memory_bytes",
		Help: "Current heap allocation in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_goroutines",
		Help: "Current number of goroutines",
	})
}

// Package-level helpers delegating to the global manager.

func RecordMatchScored()                { globalManager.matchesScored.Inc() }
func RecordDeliveryScored()             { globalManager.deliveriesScored.Inc() }
func RecordRegistryMiss()               { globalManager.registryMisses.Inc() }
func RecordMaidenOver()                 { globalManager.maidenOvers.Inc() }
func RecordScoringLatency(ms float64)   { globalManager.scoringLatency.Observe(ms) }
func RecordValuationComputed()          { globalManager.valuationsComputed.Inc() }
func RecordValuationLatency(ms float64) { globalManager.valuationLatency.Observe(ms) }
func RecordNewcomerCredit()             { globalManager.newcomerCredits.Inc() }
func RecordDefaultRoleLookup()          { globalManager.defaultRoleLookups.Inc() }
func RecordSelectionSolved()            { globalManager.selectionsSolved.Inc() }
func RecordSelectionInfeasible()        { globalManager.selectionsInfeasible.Inc() }
func RecordSolverLatency(ms float64)    { globalManager.solverLatency.Observe(ms) }
func RecordSolverNodes(n int)           { globalManager.solverNodesVisited.Observe(float64(n)) }

func UpdateHistoryRows(n int)            { globalManager.historyRows.Set(float64(n)) }
func RecordHistoryAppend(rows int)       { globalManager.historyAppends.Add(float64(rows)) }
func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }

func RecordMatchDuplicate()          { globalManager.matchesDuplicate.Inc() }
func UpdateQueueSize(n int)          { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)      { globalManager.queueCapacity.Set(float64(n)) }
func RecordQueueEnqueue()            { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()            { globalManager.queueDequeues.Inc() }
func RecordQueueReject()             { globalManager.queueRejects.Inc() }
func UpdateWorkerCount(n int)        { globalManager.workerCount.Set(float64(n)) }
func RecordWorkerLatency(ms float64) { globalManager.workerLatency.Observe(ms) }
func RecordWorkerError()             { globalManager.workerErrors.Inc() }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func RecordHTTPRateLimited() { globalManager.httpRateLimited.Inc() }

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { globalManager.systemGoroutineCount.Set(float64(n)) }

// Registry returns the custom registry for the /metrics handler.
func Registry() *prometheus.Registry {
	return customRegistry
}
