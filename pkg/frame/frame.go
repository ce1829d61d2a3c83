package frame

import (
	"time"

	"caseatlas/pkg/errors"
)

// Frame is an ordered collection of named, typed columns over a shared
// row sequence. Frames are immutable after construction: filtering and
// row selection always produce new frames.
type Frame struct {
	names   []string
	columns map[string]Column
	rows    int
}

// New creates a frame from ordered column names and their columns.
// Names and columns are matched by position; all columns must have the
// same length and names must be unique and non-empty.
func New(names []string, columns []Column) (*Frame, error) {
	if len(names) != len(columns) {
		return nil, errors.Newf(errors.ErrorTypeInternal,
			"frame has %d names for %d columns", len(names), len(columns))
	}

	f := &Frame{
		names:   make([]string, len(names)),
		columns: make(map[string]Column, len(names)),
	}

	for i, name := range names {
		if name == "" {
			return nil, errors.New(errors.ErrorTypeInternal, "frame column name is empty")
		}
		if _, exists := f.columns[name]; exists {
			return nil, errors.Newf(errors.ErrorTypeInternal, "duplicate frame column %q", name)
		}
		if i == 0 {
			f.rows = columns[i].Len()
		} else if columns[i].Len() != f.rows {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"column %q has %d rows, want %d", name, columns[i].Len(), f.rows)
		}
		f.names[i] = name
		f.columns[name] = columns[i]
	}

	return f, nil
}

// Len returns the number of rows
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns
func (f *Frame) Width() int { return len(f.names) }

// Columns returns the column names in construction order
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// HasColumn reports whether the frame carries a column with this name
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns the named column. Accessing an absent column is an
// error of kind missing_column: callers must not guess at schema.
func (f *Frame) Column(name string) (Column, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMissingColumn, "no column %q", name).
			WithDetail("column", name)
	}
	return col, nil
}

// Strings returns a copy of the named string column's values
func (f *Frame) Strings(name string) ([]string, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	sc, ok := col.(*StringColumn)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMissingColumn,
			"column %q is %s, not string", name, col.Kind())
	}
	return sc.Strings(), nil
}

// Times returns a copy of the named time column's values
func (f *Frame) Times(name string) ([]time.Time, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	tc, ok := col.(*TimeColumn)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMissingColumn,
			"column %q is %s, not time", name, col.Kind())
	}
	return tc.Times(), nil
}

// Ints returns a copy of the named integer column's values
func (f *Frame) Ints(name string) ([]int64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	ic, ok := col.(*IntColumn)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMissingColumn,
			"column %q is %s, not int", name, col.Kind())
	}
	return ic.Ints(), nil
}

// Floats returns a copy of the named float column's values
func (f *Frame) Floats(name string) ([]float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	fc, ok := col.(*FloatColumn)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMissingColumn,
			"column %q is %s, not float", name, col.Kind())
	}
	return fc.Floats(), nil
}

// Take returns a new frame holding the rows at idx, in idx order.
// Indices must be valid row positions; filter routines produce them
// in ascending order so source ordering survives selection.
func (f *Frame) Take(idx []int) *Frame {
	out := &Frame{
		names:   f.names,
		columns: make(map[string]Column, len(f.names)),
		rows:    len(idx),
	}
	for _, name := range f.names {
		out.columns[name] = f.columns[name].take(idx)
	}
	return out
}

// Head returns a new frame with the first n rows, or the frame itself
// when it has n rows or fewer.
func (f *Frame) Head(n int) *Frame {
	if n >= f.rows {
		return f
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.Take(idx)
}

// Select returns a frame holding only the named columns, in the given
// order, sharing their backing data with the receiver.
func (f *Frame) Select(names ...string) (*Frame, error) {
	columns := make([]Column, len(names))
	for i, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return New(names, columns)
}

// Row renders row i as one string per column, in column order
func (f *Frame) Row(i int) []string {
	out := make([]string, len(f.names))
	for n, name := range f.names {
		out[n] = f.columns[name].render(i)
	}
	return out
}
