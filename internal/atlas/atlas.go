// Package atlas wires deployment configuration to the dataset registry
// and answers the questions the CLI layer presents: one slice of the
// case data, the subdivisions of a region, the boundaries for a map.
//
// # Overview
//
// An Atlas owns one Registry for its lifetime. Every query resolves
// through the registry, so repeated queries with equal parameters are
// cache hits: the same nodes, the same materialized frames, no source
// file re-read.
//
// # Basic Usage
//
//	a, err := atlas.New(config.Default())
//	if err != nil {
//	    return err
//	}
//
//	day, _ := time.Parse("2006-01-02", "2020-09-27")
//	res, err := a.Query(atlas.Query{Level: "county", Region: "42003", Day: &day})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.DisplayName, res.Frame.Len())
package atlas

import (
	"time"

	"go.uber.org/zap"

	"caseatlas/pkg/config"
	"caseatlas/pkg/dataset"
	"caseatlas/pkg/errors"
	"caseatlas/pkg/frame"
	"caseatlas/pkg/geojson"
	"caseatlas/pkg/logger"
)

// Atlas resolves configured level and geo names to registry nodes.
type Atlas struct {
	cfg      *config.Config
	registry *dataset.Registry
	logger   *zap.Logger
}

// Option configures an Atlas.
type Option func(*Atlas)

// WithLogger sets the logger for the atlas and its registry.
func WithLogger(l *zap.Logger) Option {
	return func(a *Atlas) {
		a.logger = l
	}
}

// New validates the configuration and builds an Atlas around a fresh
// registry. No source file is touched until a query needs it.
func New(cfg *config.Config, opts ...Option) (*Atlas, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Atlas{
		cfg:    cfg,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(a)
	}

	regOpts := []dataset.Option{dataset.WithLogger(a.logger)}
	if cfg.CountryLabel != "" {
		regOpts = append(regOpts, dataset.WithCountryLabel(cfg.CountryLabel))
	}
	a.registry = dataset.NewRegistry(regOpts...)

	a.logger.Info("atlas initialized",
		zap.Strings("levels", cfg.LevelNames()),
		zap.Int("geo_documents", len(cfg.Geo)))
	return a, nil
}

// Config returns the configuration the atlas was built with.
func (a *Atlas) Config() *config.Config {
	return a.cfg
}

// Level returns the lazy dataset node for a configured level name.
func (a *Atlas) Level(name string) (*dataset.Level, error) {
	src, ok := a.cfg.FindLevel(name)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown level %q", name).
			WithDetail("configured", a.cfg.LevelNames())
	}
	return a.registry.Level(src.Path), nil
}

// Query names one slice of the dataset: a granularity level, an
// optional region-code prefix, and an optional single day.
type Query struct {
	// Level is a configured level name
	Level string
	// Region narrows to codes with this prefix; empty keeps every row
	Region string
	// Day narrows to one calendar day; nil keeps the whole series
	Day *time.Time
}

// Result carries the materialized slice and its presentation metadata.
type Result struct {
	Frame       *frame.Frame
	Level       string
	Prefix      string
	DisplayName string
}

// Query resolves level -> region -> optional date and materializes the
// final node. Equal queries return the identical frame.
func (a *Atlas) Query(q Query) (*Result, error) {
	level, err := a.Level(q.Level)
	if err != nil {
		return nil, err
	}

	region := level.Region(q.Region)
	displayName, err := region.DisplayName()
	if err != nil {
		return nil, err
	}

	var node dataset.Node = region
	if q.Day != nil {
		node = region.Date(*q.Day)
	}
	f, err := node.Frame()
	if err != nil {
		return nil, err
	}

	return &Result{
		Frame:       f,
		Level:       q.Level,
		Prefix:      q.Region,
		DisplayName: displayName,
	}, nil
}

// Subregions returns the rows of the next finer level narrowed to the
// same region-code prefix: the states of the country, the counties of
// a state.
func (a *Atlas) Subregions(levelName, prefix string) (*frame.Frame, error) {
	next, ok := a.cfg.NextLevel(levelName)
	if !ok {
		if _, known := a.cfg.FindLevel(levelName); !known {
			return nil, errors.Newf(errors.ErrorTypeConfig, "unknown level %q", levelName).
				WithDetail("configured", a.cfg.LevelNames())
		}
		return nil, errors.Newf(errors.ErrorTypeConfig, "level %q has no finer level", levelName)
	}
	return a.registry.Level(next.Path).Region(prefix).Frame()
}

// RegionFeatures returns the boundary sub-document for a configured
// geo source narrowed to a region-code prefix.
func (a *Atlas) RegionFeatures(geoName, prefix string) (*geojson.FeatureCollection, error) {
	src, ok := a.cfg.FindGeo(geoName)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown geo document %q", geoName)
	}

	var opts []geojson.Option
	if src.Latin1 {
		opts = append(opts, geojson.WithLatin1())
	}
	return a.registry.Geo(src.Path, opts...).RegionFeatures(prefix)
}
