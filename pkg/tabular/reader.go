// Package tabular reads delimited text sources into frames
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"caseatlas/pkg/errors"
	"caseatlas/pkg/frame"
	"caseatlas/pkg/logger"
)

// DefaultDateLayout is the calendar-date layout used by source files
const DefaultDateLayout = "2006-01-02"

// Schema declares per-column kind overrides for a source. Columns not
// named here have their kind inferred from the first data row; KindTime
// is never inferred, only forced. Overrides for columns the source does
// not carry are ignored, so one schema can serve related sources of
// varying width.
type Schema struct {
	// Kinds forces the named columns to parse as the given kind.
	// Code-like columns must be forced to KindString so values such
	// as "06037" keep their leading zeros.
	Kinds map[string]frame.Kind

	// DateLayout parses KindTime cells; DefaultDateLayout when empty.
	DateLayout string
}

func (s Schema) layout() string {
	if s.DateLayout == "" {
		return DefaultDateLayout
	}
	return s.DateLayout
}

// ReadFile reads a delimited source file into a frame. Files ending in
// .gz are decompressed transparently. A missing or unreadable file is a
// source_unavailable error; content failures are malformed_source.
func ReadFile(path string, schema Schema) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSourceUnavailable, "failed to open source file").
			WithDetail("path", path)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to read gzip header").
				WithDetail("path", path)
		}
		defer gz.Close()
		r = gz
	}

	f, err := Read(r, schema)
	if err != nil {
		if structured, ok := err.(*errors.Error); ok {
			return nil, structured.WithDetail("path", path)
		}
		return nil, err
	}

	logger.Debug("read tabular source",
		zap.String("path", path),
		zap.Int("rows", f.Len()),
		zap.Int("columns", f.Width()))

	return f, nil
}

// Read reads delimited content into a frame. The first row is the
// header; every following row is data and must match the header width.
func Read(r io.Reader, schema Schema) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row width is validated against the header below

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to read header row")
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	first, err := cr.Read()
	atEOF := err == io.EOF
	if err != nil && !atEOF {
		return nil, readError(err)
	}
	if !atEOF && len(first) != len(header) {
		return nil, raggedRow(2, len(first), len(header))
	}

	builders := make([]builder, len(header))
	for i, name := range header {
		kind, ok := schema.Kinds[name]
		if !ok {
			kind = frame.KindString
			if !atEOF {
				kind = inferKind(first[i])
			}
		}
		builders[i] = newBuilder(kind, schema.layout())
	}

	row := 2 // header is row 1
	if !atEOF {
		if err := appendRow(header, builders, first, row); err != nil {
			return nil, err
		}
		for {
			rec, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, readError(err)
			}
			row++
			if len(rec) != len(header) {
				return nil, raggedRow(row, len(rec), len(header))
			}
			if err := appendRow(header, builders, rec, row); err != nil {
				return nil, err
			}
		}
	}

	columns := make([]frame.Column, len(builders))
	for i, b := range builders {
		columns[i] = b.column()
	}
	return frame.New(header, columns)
}

func validateHeader(header []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if name == "" {
			return errors.New(errors.ErrorTypeMalformedSource, "header has an empty column name")
		}
		if _, dup := seen[name]; dup {
			return errors.Newf(errors.ErrorTypeMalformedSource, "duplicate header column %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func appendRow(header []string, builders []builder, rec []string, row int) error {
	for i, cell := range rec {
		if err := builders[i].append(cell); err != nil {
			return errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to parse cell").
				WithDetail("row", row).
				WithDetail("column", header[i])
		}
	}
	return nil
}

func raggedRow(row, got, want int) error {
	return errors.Newf(errors.ErrorTypeMalformedSource,
		"row %d has %d fields, want %d", row, got, want)
}

func readError(err error) error {
	if _, ok := err.(*csv.ParseError); ok {
		return errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to parse source")
	}
	return errors.Wrap(err, errors.ErrorTypeSourceUnavailable, "failed to read source")
}

// inferKind determines a column kind from its first data cell,
// narrowest first
func inferKind(value string) frame.Kind {
	value = strings.TrimSpace(value)

	if value == "" {
		return frame.KindString
	}

	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return frame.KindInt
	}

	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return frame.KindFloat
	}

	return frame.KindString
}

type builder interface {
	append(cell string) error
	column() frame.Column
}

func newBuilder(kind frame.Kind, layout string) builder {
	switch kind {
	case frame.KindInt:
		return &intBuilder{}
	case frame.KindFloat:
		return &floatBuilder{}
	case frame.KindTime:
		return &timeBuilder{layout: layout}
	default:
		return &stringBuilder{}
	}
}

type stringBuilder struct {
	values []string
}

func (b *stringBuilder) append(cell string) error {
	b.values = append(b.values, cell)
	return nil
}

func (b *stringBuilder) column() frame.Column { return frame.NewStringColumn(b.values) }

type intBuilder struct {
	values []int64
}

func (b *intBuilder) append(cell string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as int: %w", cell, err)
	}
	b.values = append(b.values, v)
	return nil
}

func (b *intBuilder) column() frame.Column { return frame.NewIntColumn(b.values) }

type floatBuilder struct {
	values []float64
}

func (b *floatBuilder) append(cell string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as float: %w", cell, err)
	}
	b.values = append(b.values, v)
	return nil
}

func (b *floatBuilder) column() frame.Column { return frame.NewFloatColumn(b.values) }

type timeBuilder struct {
	layout string
	values []time.Time
}

func (b *timeBuilder) append(cell string) error {
	t, err := time.Parse(b.layout, strings.TrimSpace(cell))
	if err != nil {
		return fmt.Errorf("cannot parse %q as date: %w", cell, err)
	}
	// Normalize to UTC midnight so stored dates compare by calendar day
	b.values = append(b.values, time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return nil
}

func (b *timeBuilder) column() frame.Column { return frame.NewTimeColumn(b.values) }
