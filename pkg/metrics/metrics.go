// Package metrics provides ingestion observability for Curate using
// Prometheus metrics.
//
// # Basic Usage
//
//	// Record ingested samples
//	metrics.SamplesIngested.WithLabelValues("quickstart", "detection", "success").Inc()
//
//	// Track per-record parse latency
//	timer := metrics.NewTimer("parse_record")
//	label, err := parser.Label()
//	metrics.ParseLatency.WithLabelValues("detection").Observe(float64(timer.Stop().Nanoseconds()))
//
// # Metric Types
//
// Counter: Monotonically increasing values (e.g., total samples ingested)
// Gauge: Values that can go up or down (e.g., schema field count)
// Histogram: Distribution of values (e.g., parse latency percentiles)
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SamplesIngested tracks the total number of samples added to datasets.
	// Labels: dataset, parser (variant name), status (success/failure)
	SamplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curate_samples_ingested_total",
			Help: "Total number of samples ingested",
		},
		[]string{"dataset", "parser", "status"},
	)

	// FieldsCreated tracks dynamic schema fields created during ingestion.
	// Labels: dataset, kind (field kind)
	FieldsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curate_schema_fields_created_total",
			Help: "Total number of dynamic schema fields created",
		},
		[]string{"dataset", "kind"},
	)

	// ParseFailures tracks records a parser could not interpret.
	// Labels: parser (variant name), reason (error type)
	ParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curate_parse_failures_total",
			Help: "Total number of records that failed to parse",
		},
		[]string{"parser", "reason"},
	)

	// ParseLatency tracks the distribution of per-record parse latencies in
	// nanoseconds. Buckets span in-memory coercions through image decodes.
	// Labels: parser (variant name)
	ParseLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "curate_parse_latency_nanoseconds",
			Help: "Per-record parse latency in nanoseconds",
			Buckets: []float64{
				1000,  // 1μs - field coercions
				10000, // 10μs - label construction
				1e5,   // 100μs - JSON decoding
				1e6,   // 1ms - small image decodes
				1e7,   // 10ms - typical image decodes
				1e8,   // 100ms - large image decodes
				1e9,   // 1s - pathological records
			},
		},
		[]string{"parser"},
	)

	// SchemaFields tracks the current field count per dataset schema.
	SchemaFields = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curate_schema_fields",
			Help: "Current number of dynamic fields in the dataset schema",
		},
		[]string{"dataset"},
	)

	// StoreSamples tracks the current sample count per dataset.
	StoreSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curate_store_samples",
			Help: "Current number of samples in the backing store",
		},
		[]string{"dataset"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop stops the timer and returns the elapsed duration since creation.
// The timer can be stopped multiple times, each returning the total
// elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks ingestion throughput (samples per second) over
// time windows. Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	dataset   string
	parser    string
}

// NewThroughputTracker creates a new throughput tracker for an ingest run.
// The dataset and parser parameters are used as metric labels.
func NewThroughputTracker(dataset, parser string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		dataset:   dataset,
		parser:    parser,
	}
}

// Increment adds n to the sample count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (samples/second), updates
// the Prometheus metric, resets the counter, and returns the calculated
// throughput. Safe for concurrent use.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	IngestThroughput.WithLabelValues(t.dataset, t.parser).Set(throughput)

	return throughput
}

// IngestThroughput tracks samples per second per ingest run.
// Labels: dataset, parser (variant name)
var IngestThroughput = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "curate_ingest_throughput_samples_per_second",
		Help: "Current ingest throughput in samples per second",
	},
	[]string{"dataset", "parser"},
)
