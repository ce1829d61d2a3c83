package dataset

import (
	"time"

	"go.uber.org/zap"

	"caseatlas/pkg/frame"
	"caseatlas/pkg/lazy"
	"caseatlas/pkg/metrics"
)

// Date narrows an outer region to rows of one calendar day. The day
// parameter is normalized to UTC midnight, so any two times on the
// same civil date name the same node.
type Date struct {
	registry *Registry
	key      string
	outer    Node
	day      time.Time
	cell     lazy.Cell[*frame.Frame]
}

func (r *Registry) date(outer Node, day time.Time) *Date {
	day = normalizeDay(day)
	node := r.getOrCreate("date", []string{outer.Key(), day.Format("2006-01-02")}, func(key string) interface{} {
		return &Date{registry: r, key: key, outer: outer, day: day}
	})
	return node.(*Date)
}

// normalizeDay strips day to its calendar date at UTC midnight
func normalizeDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// Key returns the node's registry identity
func (d *Date) Key() string { return d.key }

// Day returns the node's calendar day at UTC midnight
func (d *Date) Day() time.Time { return d.day }

// Frame filters the outer node's rows on first use and returns the
// result. Rows keep their source order; an outer dataset without a
// date column passes through unchanged; a day with no rows is a valid
// empty result, not an error.
func (d *Date) Frame() (*frame.Frame, error) {
	return d.cell.Get(func() (*frame.Frame, error) {
		outer, err := d.outer.Frame()
		if err != nil {
			metrics.Materializations.WithLabelValues("date", "failure").Inc()
			return nil, err
		}

		timer := metrics.NewTimer("materialize_date")
		f, err := applyFilter(outer, dateFilter, d.day)
		if err != nil {
			metrics.Materializations.WithLabelValues("date", "failure").Inc()
			return nil, err
		}
		metrics.Materializations.WithLabelValues("date", "success").Inc()
		metrics.MaterializeDuration.WithLabelValues("date").Observe(timer.Stop().Seconds())

		d.registry.logger.Debug("materialized date",
			zap.String("day", d.day.Format("2006-01-02")),
			zap.Int("rows", f.Len()))
		return f, nil
	})
}

// Codes returns the region code column
func (d *Date) Codes() ([]string, error) { return frameStrings(d, ColumnRegion) }

// Days returns the date column
func (d *Date) Days() ([]time.Time, error) { return frameTimes(d, ColumnDate) }

// Cases returns the cumulative case count column
func (d *Date) Cases() ([]int64, error) { return frameInts(d, ColumnCases) }

// Deaths returns the cumulative death count column
func (d *Date) Deaths() ([]int64, error) { return frameInts(d, ColumnDeaths) }
