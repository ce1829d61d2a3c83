// Package dataset provides lazily materialized, parameter-keyed data
// nodes over geographically structured time-series sources.
//
// # Overview
//
// A Registry hands out singleton nodes:
//   - Level: every row of one granularity source (country, state, county)
//   - Region: an outer node narrowed to codes beginning with a prefix
//   - Date: a region narrowed to one calendar day
//
// Equal parameters always return the identical node, and every node
// materializes its contents at most once, on first use, by filtering
// its outer node's materialized contents. Nothing is parsed or
// filtered twice. Failed materializations are not retained, so a
// source that appears later succeeds on retry.
//
// # Basic Usage
//
//	reg := dataset.NewRegistry()
//	counties := reg.Level("data/us-counties.csv")
//
//	// Pennsylvania (FIPS 42), then one county on one day
//	pa := counties.Region("42")
//	day, _ := time.Parse("2006-01-02", "2020-09-27")
//	f, err := pa.Region("42003").Date(day).Frame()
//
// Frames returned by nodes are shared and read-only: derive, never
// mutate.
package dataset

import (
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"caseatlas/pkg/logger"
	"caseatlas/pkg/metrics"
)

// DefaultCountryLabel names the prefix-less region
const DefaultCountryLabel = "the United States"

// Registry is the identity map for data nodes. Each parameter tuple
// maps to exactly one node for the registry's lifetime; there is no
// eviction.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]interface{}

	logger       *zap.Logger
	countryLabel string
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger nodes use for lifecycle events
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithCountryLabel sets the display name of the prefix-less region
func WithCountryLabel(label string) Option {
	return func(r *Registry) {
		r.countryLabel = label
	}
}

// NewRegistry creates an empty node registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		nodes:        make(map[string]interface{}),
		logger:       logger.Get(),
		countryLabel: DefaultCountryLabel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size reports how many nodes the registry holds
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// getOrCreate returns the node registered for the given parameters,
// building and registering it first if absent. This is the only place
// nodes are constructed and keys are encoded, which is what makes
// equal parameters, and only equal parameters, yield the identical
// node.
func (r *Registry) getOrCreate(kind string, params []string, build func(key string) interface{}) interface{} {
	key := cacheKey(kind, params)

	r.mu.Lock()
	defer r.mu.Unlock()

	if node, ok := r.nodes[key]; ok {
		metrics.NodeCacheEvents.WithLabelValues(kind, "hit").Inc()
		return node
	}
	metrics.NodeCacheEvents.WithLabelValues(kind, "miss").Inc()

	node := build(key)
	r.nodes[key] = node
	return node
}

// cacheKey encodes a node kind and its parameters into a registry key.
// Each parameter is length-prefixed, so a separator inside a parameter
// value cannot shift the boundary between parameters: path "a|b" with
// prefix "c" and path "a" with prefix "b|c" encode to distinct keys.
func cacheKey(kind string, params []string) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range params {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
