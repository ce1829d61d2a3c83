package dataset

import (
	"time"

	"go.uber.org/zap"

	"caseatlas/pkg/frame"
	"caseatlas/pkg/lazy"
	"caseatlas/pkg/metrics"
	"caseatlas/pkg/tabular"
)

// Level is the root node of one granularity level: every row of one
// source file, parsed on first use.
type Level struct {
	registry *Registry
	key      string
	path     string
	cell     lazy.Cell[*frame.Frame]
}

// Level returns the singleton node for the source at path
func (r *Registry) Level(path string) *Level {
	node := r.getOrCreate("level", []string{path}, func(key string) interface{} {
		return &Level{registry: r, key: key, path: path}
	})
	return node.(*Level)
}

// Key returns the node's registry identity
func (l *Level) Key() string { return l.key }

// Path returns the node's source file path
func (l *Level) Path() string { return l.path }

// Frame parses the source file on first use and returns its rows.
// Concurrent first callers share one load; a failed load is returned
// to them all and retried on the next call.
func (l *Level) Frame() (*frame.Frame, error) {
	return l.cell.Get(func() (*frame.Frame, error) {
		timer := metrics.NewTimer("materialize_level")
		f, err := tabular.ReadFile(l.path, levelSchema())
		if err != nil {
			metrics.Materializations.WithLabelValues("level", "failure").Inc()
			return nil, err
		}
		metrics.Materializations.WithLabelValues("level", "success").Inc()
		metrics.MaterializeDuration.WithLabelValues("level").Observe(timer.Stop().Seconds())

		l.registry.logger.Debug("materialized level",
			zap.String("path", l.path),
			zap.Int("rows", f.Len()),
			zap.Int("columns", f.Width()))
		return f, nil
	})
}

// Region returns the singleton sub-node narrowed to region codes
// beginning with prefix. The empty prefix keeps every row.
func (l *Level) Region(prefix string) *Region {
	return l.registry.region(l, prefix)
}

// Codes returns the region code column
func (l *Level) Codes() ([]string, error) { return frameStrings(l, ColumnRegion) }

// Days returns the date column
func (l *Level) Days() ([]time.Time, error) { return frameTimes(l, ColumnDate) }

// Cases returns the cumulative case count column
func (l *Level) Cases() ([]int64, error) { return frameInts(l, ColumnCases) }

// Deaths returns the cumulative death count column
func (l *Level) Deaths() ([]int64, error) { return frameInts(l, ColumnDeaths) }
