package dataset

import (
	"strings"
	"time"

	"caseatlas/pkg/errors"
	"caseatlas/pkg/frame"
)

type matchKind int

const (
	matchPrefix matchKind = iota
	matchExact
)

// filterSpec describes how a derived node narrows its outer node:
// which column it consults and how stored values must relate to the
// node's parameter.
type filterSpec struct {
	column string
	match  matchKind
}

var (
	regionFilter = filterSpec{column: ColumnRegion, match: matchPrefix}
	dateFilter   = filterSpec{column: ColumnDate, match: matchExact}
)

// applyFilter selects the rows of outer whose spec.column value
// matches want, preserving row order. When outer does not carry the
// filter column at all, it is already at or above the requested
// granularity and passes through unchanged.
func applyFilter(outer *frame.Frame, spec filterSpec, want interface{}) (*frame.Frame, error) {
	if !outer.HasColumn(spec.column) {
		return outer, nil
	}
	col, err := outer.Column(spec.column)
	if err != nil {
		return nil, err
	}

	idx := make([]int, 0, outer.Len())
	switch spec.match {
	case matchPrefix:
		prefix, ok := want.(string)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"prefix filter wants a string parameter, got %T", want)
		}
		sc, ok := col.(*frame.StringColumn)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"filter column %q is %s, not string", spec.column, col.Kind())
		}
		for i := 0; i < sc.Len(); i++ {
			if strings.HasPrefix(sc.String(i), prefix) {
				idx = append(idx, i)
			}
		}

	case matchExact:
		day, ok := want.(time.Time)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"exact filter wants a time parameter, got %T", want)
		}
		tc, ok := col.(*frame.TimeColumn)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"filter column %q is %s, not time", spec.column, col.Kind())
		}
		for i := 0; i < tc.Len(); i++ {
			if tc.Time(i).Equal(day) {
				idx = append(idx, i)
			}
		}

	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown match kind %d", spec.match)
	}

	// No matches is a valid, empty result, not an error.
	return outer.Take(idx), nil
}
