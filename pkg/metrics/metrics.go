// Package metrics provides performance tracking and observability for
// caseatlas using Prometheus metrics. It offers collectors for node cache
// behavior, materialization outcomes, and geometry lookups.
//
// # Overview
//
// The metrics package provides:
//   - Prometheus-compatible metrics collection
//   - Pre-defined metrics for node and geometry caches
//   - Materialization latency tracking
//   - Automatic metric registration
//
// # Basic Usage
//
//	// Record a registry cache hit
//	metrics.NodeCacheEvents.WithLabelValues("region", "hit").Inc()
//
//	// Track materialization latency
//	timer := metrics.NewTimer("materialize_level")
//	frame, err := node.Frame()
//	metrics.MaterializeDuration.WithLabelValues("level").
//	    Observe(timer.Stop().Seconds())
//
// # Metric Types
//
// Counter: Monotonically increasing values (e.g., total materializations)
// Histogram: Distribution of values (e.g., materialization latency)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeCacheEvents tracks registry lookups for data nodes.
	// Labels: kind (level/region/date/geometry), event (hit/miss)
	//
	// Example:
	//	metrics.NodeCacheEvents.WithLabelValues("region", "miss").Inc()
	NodeCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseatlas_node_cache_events_total",
			Help: "Total number of node registry lookups by outcome",
		},
		[]string{"kind", "event"},
	)

	// Materializations tracks how often node content is generated.
	// Labels: kind (level/region/date/geometry), status (success/failure)
	//
	// Example:
	//	metrics.Materializations.WithLabelValues("level", "success").Inc()
	Materializations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseatlas_materializations_total",
			Help: "Total number of node materializations by outcome",
		},
		[]string{"kind", "status"},
	)

	// MaterializeDuration tracks the distribution of materialization
	// latencies in seconds. Buckets span in-memory filters through
	// multi-megabyte source file loads.
	// Labels: kind (level/region/date/geometry)
	//
	// Example:
	//	timer := metrics.NewTimer("materialize")
	//	frame, err := node.Frame()
	//	metrics.MaterializeDuration.WithLabelValues("date").
	//	    Observe(timer.Stop().Seconds())
	MaterializeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "caseatlas_materialize_duration_seconds",
			Help: "Materialization latency in seconds",
			Buckets: []float64{
				0.0001, // 100μs - small in-memory filters
				0.001,  // 1ms - large in-memory filters
				0.01,   // 10ms - small file loads
				0.1,    // 100ms - national-level file loads
				1,      // 1s - county-level file loads
				10,     // 10s - cold storage or oversized sources
			},
		},
		[]string{"kind"},
	)

	// RegionFeatureLookups tracks geometry subset lookups by outcome.
	// Labels: event (hit/miss)
	RegionFeatureLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseatlas_region_feature_lookups_total",
			Help: "Total number of geometry region subset lookups by outcome",
		},
		[]string{"event"},
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
//
// Example:
//
//	timer := metrics.NewTimer("materialize_region")
//	frame, err := node.Frame()
//	duration := timer.Stop()
//	logger.Debug("materialized", zap.Duration("duration", duration))
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
	duration := time.Since(t.start)
	return duration
}
