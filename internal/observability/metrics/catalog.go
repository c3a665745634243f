package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics contains Prometheus metrics for pitch resolution, map
// rebuilds and lookups. All methods are safe on a nil receiver.
type CatalogMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec

	resolutionsTotal *prometheus.CounterVec
	rebuildSamples   prometheus.Histogram
	lookupsTotal     *prometheus.CounterVec
	cacheTotal       *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewCatalogMetrics creates and registers catalog metrics
func NewCatalogMetrics(registry *prometheus.Registry) (*CatalogMetrics, error) {
	m := &CatalogMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CatalogMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonebank_operations_total",
			Help: "Total number of catalog operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tonebank_operation_duration_seconds",
			Help:    "Time taken by catalog operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonebank_errors_total",
			Help: "Total number of catalog errors by type",
		},
		[]string{"operation", "error_type"},
	)

	m.resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonebank_pitch_resolutions_total",
			Help: "Pitch resolutions by the step that produced the pitch",
		},
		[]string{"method"},
	)

	m.rebuildSamples = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tonebank_rebuild_samples",
			Help:    "Number of samples considered per note map rebuild",
			Buckets: prometheus.ExponentialBuckets(1, BucketFactor2, 8), // 1 to 128
		},
	)

	m.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonebank_lookups_total",
			Help: "Note map lookups by outcome",
		},
		[]string{"status"},
	)

	m.cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonebank_map_cache_total",
			Help: "Published note map cache hits and misses",
		},
		[]string{"result"},
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
		m.resolutionsTotal,
		m.rebuildSamples,
		m.lookupsTotal,
		m.cacheTotal,
	}
}

// Describe implements the Collector interface
func (m *CatalogMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CatalogMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation implements Recorder
func (m *CatalogMetrics) RecordOperation(operation, status string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *CatalogMetrics) RecordDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *CatalogMetrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordResolution counts a pitch resolved by method
func (m *CatalogMetrics) RecordResolution(method string) {
	if m == nil {
		return
	}
	m.resolutionsTotal.WithLabelValues(method).Inc()
}

// RecordRebuild records one note map rebuild over samples candidates
func (m *CatalogMetrics) RecordRebuild(samples int, seconds float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(OpRebuild, StatusSuccess).Inc()
	m.operationDuration.WithLabelValues(OpRebuild).Observe(seconds)
	m.rebuildSamples.Observe(float64(samples))
}

// RecordLookup counts a lookup outcome: StatusSuccess, StatusUnavailable or StatusError
func (m *CatalogMetrics) RecordLookup(status string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(status).Inc()
}

// RecordCache counts a published map cache hit or miss
func (m *CatalogMetrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := StatusMiss
	if hit {
		result = StatusHit
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

var _ Recorder = (*CatalogMetrics)(nil)
