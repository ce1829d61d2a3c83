// Package frame provides the read-only tabular dataset model for caseatlas
package frame

import (
	"strconv"
	"time"
)

// Kind represents the data type of a column
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Column is the base interface for all column types. Columns are
// immutable after construction; implementations live in this package.
type Column interface {
	Kind() Kind
	Len() int
	Value(i int) interface{}

	// take returns a new column holding the rows at idx, in idx order.
	take(idx []int) Column
	// render formats the value at i for tabular presentation.
	render(i int) string
}

// StringColumn stores string values exactly as read, preserving
// leading zeros in code-like values
type StringColumn struct {
	values []string
}

// NewStringColumn creates a string column backed by values.
// The column takes ownership of the slice.
func NewStringColumn(values []string) *StringColumn {
	return &StringColumn{values: values}
}

func (c *StringColumn) Kind() Kind              { return KindString }
func (c *StringColumn) Len() int                { return len(c.values) }
func (c *StringColumn) Value(i int) interface{} { return c.values[i] }
func (c *StringColumn) String(i int) string     { return c.values[i] }
func (c *StringColumn) render(i int) string     { return c.values[i] }

// Strings returns a copy of the column values
func (c *StringColumn) Strings() []string {
	out := make([]string, len(c.values))
	copy(out, c.values)
	return out
}

func (c *StringColumn) take(idx []int) Column {
	out := make([]string, len(idx))
	for n, i := range idx {
		out[n] = c.values[i]
	}
	return &StringColumn{values: out}
}

// IntColumn stores integer values
type IntColumn struct {
	values []int64
}

// NewIntColumn creates an integer column backed by values.
// The column takes ownership of the slice.
func NewIntColumn(values []int64) *IntColumn {
	return &IntColumn{values: values}
}

func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.values) }
func (c *IntColumn) Value(i int) interface{} { return c.values[i] }
func (c *IntColumn) Int(i int) int64         { return c.values[i] }
func (c *IntColumn) render(i int) string     { return strconv.FormatInt(c.values[i], 10) }

// Ints returns a copy of the column values
func (c *IntColumn) Ints() []int64 {
	out := make([]int64, len(c.values))
	copy(out, c.values)
	return out
}

func (c *IntColumn) take(idx []int) Column {
	out := make([]int64, len(idx))
	for n, i := range idx {
		out[n] = c.values[i]
	}
	return &IntColumn{values: out}
}

// FloatColumn stores floating point values
type FloatColumn struct {
	values []float64
}

// NewFloatColumn creates a float column backed by values.
// The column takes ownership of the slice.
func NewFloatColumn(values []float64) *FloatColumn {
	return &FloatColumn{values: values}
}

func (c *FloatColumn) Kind() Kind              { return KindFloat }
func (c *FloatColumn) Len() int                { return len(c.values) }
func (c *FloatColumn) Value(i int) interface{} { return c.values[i] }
func (c *FloatColumn) Float(i int) float64     { return c.values[i] }
func (c *FloatColumn) render(i int) string {
	return strconv.FormatFloat(c.values[i], 'g', -1, 64)
}

// Floats returns a copy of the column values
func (c *FloatColumn) Floats() []float64 {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}

func (c *FloatColumn) take(idx []int) Column {
	out := make([]float64, len(idx))
	for n, i := range idx {
		out[n] = c.values[i]
	}
	return &FloatColumn{values: out}
}

// TimeColumn stores calendar dates as UTC midnight instants
type TimeColumn struct {
	values []time.Time
}

// NewTimeColumn creates a time column backed by values.
// The column takes ownership of the slice.
func NewTimeColumn(values []time.Time) *TimeColumn {
	return &TimeColumn{values: values}
}

func (c *TimeColumn) Kind() Kind              { return KindTime }
func (c *TimeColumn) Len() int                { return len(c.values) }
func (c *TimeColumn) Value(i int) interface{} { return c.values[i] }
func (c *TimeColumn) Time(i int) time.Time    { return c.values[i] }
func (c *TimeColumn) render(i int) string     { return c.values[i].Format("2006-01-02") }

// Times returns a copy of the column values
func (c *TimeColumn) Times() []time.Time {
	out := make([]time.Time, len(c.values))
	copy(out, c.values)
	return out
}

func (c *TimeColumn) take(idx []int) Column {
	out := make([]time.Time, len(idx))
	for n, i := range idx {
		out[n] = c.values[i]
	}
	return &TimeColumn{values: out}
}
