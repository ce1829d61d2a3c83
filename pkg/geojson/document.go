package geojson

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"caseatlas/pkg/errors"
	"caseatlas/pkg/lazy"
	"caseatlas/pkg/logger"
	"caseatlas/pkg/metrics"
)

// Document is a boundary file that is read and decoded at most once.
// All consumers of the same document share one decoded collection and
// one subset cache.
type Document struct {
	path   string
	latin1 bool
	logger *zap.Logger

	cell lazy.Cell[*FeatureCollection]

	mu      sync.Mutex
	subsets map[string]*FeatureCollection
}

// Option configures a Document.
type Option func(*Document)

// WithLatin1 treats the source file as ISO-8859-1 and re-encodes it to
// UTF-8 before decoding. Older census boundary exports predate the
// UTF-8 default and carry accented place names in Latin-1.
func WithLatin1() Option {
	return func(d *Document) { d.latin1 = true }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *zap.Logger) Option {
	return func(d *Document) { d.logger = log }
}

// NewDocument describes the boundary file at path without reading it.
// The file is loaded on first access to its features.
func NewDocument(path string, opts ...Option) *Document {
	d := &Document{
		path:    path,
		logger:  logger.Get(),
		subsets: make(map[string]*FeatureCollection),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Key returns the canonical cache key for the document parameters.
func (d *Document) Key() string {
	return "geo|" + d.path + "|latin1=" + strconv.FormatBool(d.latin1)
}

// Path returns the source file path.
func (d *Document) Path() string { return d.path }

// Collection returns the decoded feature collection, loading and
// decorating it on first call. Concurrent first calls share a single
// load, and a failed load is not retained.
func (d *Document) Collection() (*FeatureCollection, error) {
	return d.cell.Get(d.load)
}

func (d *Document) load() (*FeatureCollection, error) {
	timer := metrics.NewTimer("materialize_geometry")

	data, err := os.ReadFile(d.path)
	if err != nil {
		metrics.Materializations.WithLabelValues("geometry", "failure").Inc()
		return nil, errors.Wrap(err, errors.ErrorTypeSourceUnavailable, "failed to read geometry source").
			WithDetail("path", d.path)
	}
	if d.latin1 {
		data = latin1ToUTF8(data)
	}

	fc, err := decodeCollection(data)
	if err == nil {
		err = fc.SynthesizeIDs()
	}
	if err != nil {
		metrics.Materializations.WithLabelValues("geometry", "failure").Inc()
		if structured, ok := err.(*errors.Error); ok {
			return nil, structured.WithDetail("path", d.path)
		}
		return nil, err
	}

	metrics.Materializations.WithLabelValues("geometry", "success").Inc()
	metrics.MaterializeDuration.WithLabelValues("geometry").Observe(timer.Stop().Seconds())
	d.logger.Debug("materialized geometry document",
		zap.String("path", d.path),
		zap.Int("features", len(fc.Features)))
	return fc, nil
}

// Len returns the number of features, loading the document if needed.
func (d *Document) Len() (int, error) {
	fc, err := d.Collection()
	if err != nil {
		return 0, err
	}
	return len(fc.Features), nil
}

// FeatureIDs returns the region code of every feature in document
// order.
func (d *Document) FeatureIDs() ([]string, error) {
	fc, err := d.Collection()
	if err != nil {
		return nil, err
	}
	return fc.IDs(), nil
}

// RegionFeatures returns a sub-document holding only the features
// whose region codes start with prefix. The empty prefix selects every
// feature. Sub-documents are cached per prefix, so equal prefixes
// return the identical one. Features and non-feature members are
// shared with the full document and must not be modified.
func (d *Document) RegionFeatures(prefix string) (*FeatureCollection, error) {
	fc, err := d.Collection()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if sub, ok := d.subsets[prefix]; ok {
		metrics.RegionFeatureLookups.WithLabelValues("hit").Inc()
		return sub, nil
	}
	metrics.RegionFeatureLookups.WithLabelValues("miss").Inc()

	sub := &FeatureCollection{Type: fc.Type, Extra: fc.Extra}
	for _, f := range fc.Features {
		if strings.HasPrefix(f.ID, prefix) {
			sub.Features = append(sub.Features, f)
		}
	}
	d.subsets[prefix] = sub
	return sub, nil
}
