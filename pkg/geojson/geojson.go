// Package geojson loads boundary documents and carves them into
// region subsets.
//
// # Overview
//
// A Document wraps a GeoJSON feature collection on disk. Loading is
// deferred until a caller needs the features, happens at most once,
// and decorates every feature with the region code synthesized from
// its census properties. Subsets of the collection are cached per
// region-code prefix, so repeated map renders share one decoded
// document and one filtered feature list.
//
// # Basic Usage
//
//	doc := geojson.NewDocument("geojson-counties-fips.json")
//	pa, err := doc.RegionFeatures("42")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pa.Len())
package geojson

import (
	"unicode/utf8"

	"github.com/goccy/go-json"

	"caseatlas/pkg/errors"
)

// Census boundary exports carry the state and county FIPS parts as
// separate string properties.
const (
	propState  = "STATE"
	propCounty = "COUNTY"
)

// Feature is a single GeoJSON feature. Geometry is kept as raw bytes;
// the atlas routes it to map renderers without inspecting coordinates.
type Feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is a decoded boundary document. Members beyond
// type and features, such as bbox or crs, are preserved in Extra.
type FeatureCollection struct {
	Type     string
	Features []*Feature
	Extra    map[string]json.RawMessage
}

// Len returns the number of features.
func (fc *FeatureCollection) Len() int { return len(fc.Features) }

// IDs returns the region code of every feature in document order.
func (fc *FeatureCollection) IDs() []string {
	ids := make([]string, len(fc.Features))
	for i, f := range fc.Features {
		ids[i] = f.ID
	}
	return ids
}

func decodeCollection(data []byte) (*FeatureCollection, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to decode geometry document")
	}

	fc := &FeatureCollection{Extra: make(map[string]json.RawMessage)}
	for name, value := range raw {
		switch name {
		case "type":
			if err := json.Unmarshal(value, &fc.Type); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to decode geometry document type")
			}
		case "features":
			if err := json.Unmarshal(value, &fc.Features); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeMalformedSource, "failed to decode geometry features")
			}
		default:
			fc.Extra[name] = value
		}
	}

	if fc.Type != "FeatureCollection" {
		return nil, errors.New(errors.ErrorTypeMalformedSource, "geometry document is not a feature collection").
			WithDetail("type", fc.Type)
	}
	return fc, nil
}

// MarshalJSON reassembles the document, including the members it does
// not model.
func (fc *FeatureCollection) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(fc.Extra)+2)
	for name, value := range fc.Extra {
		doc[name] = value
	}
	doc["type"] = fc.Type
	doc["features"] = fc.Features
	return json.Marshal(doc)
}

// SynthesizeIDs assigns each feature its region code, the
// concatenation of the STATE and COUNTY properties. Features that
// already carry an id keep it, so repeated calls are no-ops. A feature
// with no usable STATE property makes the whole document malformed.
func (fc *FeatureCollection) SynthesizeIDs() error {
	for i, f := range fc.Features {
		if f.ID != "" {
			continue
		}
		state, ok := stringProperty(f.Properties, propState)
		if !ok {
			return errors.New(errors.ErrorTypeMalformedSource, "failed to synthesize feature id: no STATE property").
				WithDetail("feature", i)
		}
		county, _ := stringProperty(f.Properties, propCounty)
		f.ID = state + county
	}
	return nil
}

func stringProperty(props map[string]interface{}, name string) (string, bool) {
	v, ok := props[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// latin1ToUTF8 re-encodes ISO-8859-1 bytes as UTF-8. Each Latin-1 byte
// value is the Unicode code point with the same number.
func latin1ToUTF8(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b < utf8.RuneSelf {
			out = append(out, b)
		} else {
			out = utf8.AppendRune(out, rune(b))
		}
	}
	return out
}
