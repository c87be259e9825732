// Package metrics provides Prometheus metrics for the k0sqa analysis run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for an analysis run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Event flow
	eventsRead     prometheus.Counter
	eventsSelected prometheus.Counter

	// Candidate selection
	v0sSeen             prometheus.Counter
	v0sAccepted         prometheus.Counter
	v0sRejected         *prometheus.CounterVec
	daughtersUnresolved prometheus.Counter

	// Processing
	eventProcessingLatency prometheus.Histogram
	workerErrors           prometheus.Counter
	workerCount            prometheus.Gauge

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Input
	readerErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "k0sqa",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_read_total",
		Help:      "Total number of collision events read from the input",
	})

	m.eventsSelected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_selected_total",
		Help:      "Total number of events passing the event quality selection",
	})

	m.v0sSeen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "v0s_seen_total",
		Help:      "Total number of V0 candidates considered",
	})

	m.v0sAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "v0s_accepted_total",
		Help:      "Total number of V0 candidates passing all selection cuts",
	})

	m.v0sRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "v0s_rejected_total",
			Help:      "Total number of V0 candidates rejected, by failing cut",
		},
		[]string{"cut"},
	)

	m.daughtersUnresolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "daughters_unresolved_total",
		Help:      "Total number of V0 candidates dropped because a daughter track was missing",
	})

	m.eventProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_processing_latency_milliseconds",
		Help:      "Histogram of per-event processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of event-processing workers",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the event queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of events enqueued",
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of events dequeued",
	})

	m.queueEnqueueErrs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of enqueue errors",
	})

	m.readerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reader_errors_total",
		Help:      "Total number of input reader errors",
	})
}

// RecordEventRead increments the events read counter.
func RecordEventRead() {
	globalManager.eventsRead.Inc()
}

// RecordEventSelected increments the selected events counter.
func RecordEventSelected() {
	globalManager.eventsSelected.Inc()
}

// RecordV0Seen increments the V0 candidates counter.
func RecordV0Seen() {
	globalManager.v0sSeen.Inc()
}

// RecordV0Accepted increments the accepted V0 counter.
func RecordV0Accepted() {
	globalManager.v0sAccepted.Inc()
}

// RecordV0Rejected increments the rejected V0 counter for the failing cut.
func RecordV0Rejected(cut string) {
	globalManager.v0sRejected.WithLabelValues(cut).Inc()
}

// RecordDaughterUnresolved increments the unresolved daughter counter.
func RecordDaughterUnresolved() {
	globalManager.daughtersUnresolved.Inc()
}

// RecordEventProcessingLatency records per-event processing latency in milliseconds.
func RecordEventProcessingLatency(latencyMs float64) {
	globalManager.eventProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// RecordReaderError increments the reader error counter.
func RecordReaderError() {
	globalManager.readerErrors.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
