package dataset

import (
	"time"

	"go.uber.org/zap"

	"caseatlas/pkg/frame"
	"caseatlas/pkg/lazy"
	"caseatlas/pkg/metrics"
)

// Region narrows an outer node to rows whose region code begins with
// its prefix. A region derived from a region narrows further, so a
// county node can hang off its state node.
type Region struct {
	registry *Registry
	key      string
	outer    Node
	prefix   string
	cell     lazy.Cell[*frame.Frame]
}

func (r *Registry) region(outer Node, prefix string) *Region {
	node := r.getOrCreate("region", []string{outer.Key(), prefix}, func(key string) interface{} {
		return &Region{registry: r, key: key, outer: outer, prefix: prefix}
	})
	return node.(*Region)
}

// Key returns the node's registry identity
func (r *Region) Key() string { return r.key }

// Prefix returns the region code prefix this node filters by
func (r *Region) Prefix() string { return r.prefix }

// Frame filters the outer node's rows on first use and returns the
// result. Rows keep their source order; an outer dataset without a
// region code column passes through unchanged; no matching rows is a
// valid empty result, not an error.
func (r *Region) Frame() (*frame.Frame, error) {
	return r.cell.Get(func() (*frame.Frame, error) {
		outer, err := r.outer.Frame()
		if err != nil {
			metrics.Materializations.WithLabelValues("region", "failure").Inc()
			return nil, err
		}

		timer := metrics.NewTimer("materialize_region")
		f, err := applyFilter(outer, regionFilter, r.prefix)
		if err != nil {
			metrics.Materializations.WithLabelValues("region", "failure").Inc()
			return nil, err
		}
		metrics.Materializations.WithLabelValues("region", "success").Inc()
		metrics.MaterializeDuration.WithLabelValues("region").Observe(timer.Stop().Seconds())

		r.registry.logger.Debug("materialized region",
			zap.String("prefix", r.prefix),
			zap.Int("rows", f.Len()))
		return f, nil
	})
}

// Region returns the singleton sub-node narrowed to codes beginning
// with prefix. Narrowing by an extension of this node's own prefix
// yields the same rows as narrowing the root directly.
func (r *Region) Region(prefix string) *Region {
	return r.registry.region(r, prefix)
}

// Date returns the singleton sub-node narrowed to one calendar day
func (r *Region) Date(day time.Time) *Date {
	return r.registry.date(r, day)
}

// DisplayName returns a human-readable name for the region: the
// configured country label for the empty prefix, the state label for
// state-length codes, and "County, State" below that. A region with
// no rows, or whose source lacks the name column its code calls for,
// is named by its code.
func (r *Region) DisplayName() (string, error) {
	if r.prefix == "" {
		return r.registry.countryLabel, nil
	}

	f, err := r.Frame()
	if err != nil {
		return "", err
	}
	if f.Len() == 0 || !f.HasColumn(ColumnState) {
		return r.prefix, nil
	}

	states, err := f.Strings(ColumnState)
	if err != nil {
		return "", err
	}
	if len(r.prefix) <= stateCodeLen {
		return states[0], nil
	}
	if !f.HasColumn(ColumnCounty) {
		return r.prefix, nil
	}

	counties, err := f.Strings(ColumnCounty)
	if err != nil {
		return "", err
	}
	return counties[0] + ", " + states[0], nil
}

// Codes returns the region code column
func (r *Region) Codes() ([]string, error) { return frameStrings(r, ColumnRegion) }

// Days returns the date column
func (r *Region) Days() ([]time.Time, error) { return frameTimes(r, ColumnDate) }

// Cases returns the cumulative case count column
func (r *Region) Cases() ([]int64, error) { return frameInts(r, ColumnCases) }

// Deaths returns the cumulative death count column
func (r *Region) Deaths() ([]int64, error) { return frameInts(r, ColumnDeaths) }
