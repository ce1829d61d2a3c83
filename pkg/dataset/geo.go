package dataset

import (
	"caseatlas/pkg/geojson"
)

// Geo returns the boundary document for the given source file. Equal
// paths and options return the identical document, and the file is not
// read until its features are first needed.
func (r *Registry) Geo(path string, opts ...geojson.Option) *geojson.Document {
	opts = append([]geojson.Option{geojson.WithLogger(r.logger)}, opts...)
	candidate := geojson.NewDocument(path, opts...)
	return r.getOrCreate("geometry", []string{candidate.Key()}, func(string) interface{} {
		return candidate
	}).(*geojson.Document)
}
