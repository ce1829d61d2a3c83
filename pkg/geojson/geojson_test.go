package geojson

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"caseatlas/pkg/errors"
	"caseatlas/pkg/testutil"
)

const countyDoc = `{
	"type": "FeatureCollection",
	"bbox": [-124.7, 24.5, -66.9, 49.4],
	"features": [
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": []}, "properties": {"STATE": "42", "COUNTY": "003", "NAME": "Allegheny"}},
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": []}, "properties": {"STATE": "42", "COUNTY": "101", "NAME": "Philadelphia"}},
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": []}, "properties": {"STATE": "06", "COUNTY": "037", "NAME": "Los Angeles"}}
	]
}`

const stateDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "id": "keepme", "geometry": null, "properties": {"STATE": "42", "NAME": "Pennsylvania"}},
		{"type": "Feature", "geometry": null, "properties": {"STATE": "06", "NAME": "California"}}
	]
}`

func newTestDocument(t *testing.T, doc string, opts ...Option) *Document {
	t.Helper()
	path := testutil.WriteGeoJSON(t, t.TempDir(), "boundaries.json", doc)
	opts = append([]Option{WithLogger(testutil.TestLogger(t))}, opts...)
	return NewDocument(path, opts...)
}

func TestDocument_LazyLoad(t *testing.T) {
	// The source does not exist; describing it must not touch it.
	d := NewDocument(filepath.Join(t.TempDir(), "absent.json"),
		WithLogger(testutil.TestLogger(t)))
	assert.Equal(t, int64(0), d.cell.Generations())

	_, err := d.Collection()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSourceUnavailable))
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, int64(0), d.cell.Generations())
}

func TestDocument_FailureIsRetryable(t *testing.T) {
	dir := t.TempDir()
	d := NewDocument(filepath.Join(dir, "boundaries.json"),
		WithLogger(testutil.TestLogger(t)))

	_, err := d.Collection()
	require.Error(t, err)

	// The source appears; the same document now loads.
	testutil.WriteGeoJSON(t, dir, "boundaries.json", countyDoc)

	n, err := d.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(1), d.cell.Generations())
}

func TestDocument_SynthesizesIDs(t *testing.T) {
	t.Run("county codes concatenate state and county", func(t *testing.T) {
		ids, err := newTestDocument(t, countyDoc).FeatureIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"42003", "42101", "06037"}, ids)
	})

	t.Run("state codes stand alone and existing ids survive", func(t *testing.T) {
		ids, err := newTestDocument(t, stateDoc).FeatureIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"keepme", "06"}, ids)
	})

	t.Run("synthesis is idempotent", func(t *testing.T) {
		d := newTestDocument(t, countyDoc)
		fc, err := d.Collection()
		require.NoError(t, err)

		require.NoError(t, fc.SynthesizeIDs())
		ids, err := d.FeatureIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"42003", "42101", "06037"}, ids)
	})

	t.Run("missing STATE makes the document malformed", func(t *testing.T) {
		doc := `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "geometry": null, "properties": {"NAME": "nowhere"}}
		]}`
		_, err := newTestDocument(t, doc).Collection()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedSource))
		assert.False(t, errors.IsRetryable(err))

		var structured *errors.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, 0, structured.Details["feature"])
	})
}

func TestDocument_LoadsOnce(t *testing.T) {
	d := newTestDocument(t, countyDoc)

	fc, err := d.Collection()
	require.NoError(t, err)
	again, err := d.Collection()
	require.NoError(t, err)
	assert.Same(t, fc, again)
	assert.Equal(t, int64(1), d.cell.Generations())
}

func TestDocument_ConcurrentFirstAccess(t *testing.T) {
	d := newTestDocument(t, countyDoc)

	const callers = 16
	collections := make([]*FeatureCollection, callers)

	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			fc, err := d.Collection()
			if err != nil {
				return err
			}
			collections[i] = fc
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, fc := range collections {
		assert.Same(t, collections[0], fc)
	}
	assert.Equal(t, int64(1), d.cell.Generations())
}

func TestDocument_RegionFeatures(t *testing.T) {
	d := newTestDocument(t, countyDoc)

	t.Run("prefix selects matching features in document order", func(t *testing.T) {
		sub, err := d.RegionFeatures("42")
		require.NoError(t, err)
		assert.Equal(t, []string{"42003", "42101"}, sub.IDs())
	})

	t.Run("equal prefixes return the identical sub-document", func(t *testing.T) {
		a, err := d.RegionFeatures("42")
		require.NoError(t, err)
		b, err := d.RegionFeatures("42")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("sub-documents share features and members with the document", func(t *testing.T) {
		fc, err := d.Collection()
		require.NoError(t, err)
		sub, err := d.RegionFeatures("06")
		require.NoError(t, err)
		require.Equal(t, 1, sub.Len())
		assert.Same(t, fc.Features[2], sub.Features[0])
		assert.Equal(t, "FeatureCollection", sub.Type)
		assert.Contains(t, sub.Extra, "bbox")
	})

	t.Run("empty prefix selects everything", func(t *testing.T) {
		sub, err := d.RegionFeatures("")
		require.NoError(t, err)
		assert.Equal(t, 3, sub.Len())
	})

	t.Run("no matches is a valid empty sub-document", func(t *testing.T) {
		sub, err := d.RegionFeatures("99")
		require.NoError(t, err)
		assert.Equal(t, 0, sub.Len())
	})
}

func TestDocument_ExtraMembersPreserved(t *testing.T) {
	d := newTestDocument(t, countyDoc)

	fc, err := d.Collection()
	require.NoError(t, err)
	assert.Contains(t, fc.Extra, "bbox")

	out, err := json.Marshal(fc)
	require.NoError(t, err)

	var round map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Contains(t, round, "bbox")
	assert.Contains(t, round, "type")
	assert.Contains(t, round, "features")
}

func TestDocument_Latin1(t *testing.T) {
	doc := "{\"type\": \"FeatureCollection\", \"features\": [" +
		"{\"type\": \"Feature\", \"geometry\": null, " +
		"\"properties\": {\"STATE\": \"35\", \"COUNTY\": \"013\", \"NAME\": \"Do\xf1a Ana\"}}]}"
	path := testutil.WriteFile(t, t.TempDir(), "boundaries.json", []byte(doc))

	d := NewDocument(path, WithLatin1(), WithLogger(testutil.TestLogger(t)))
	fc, err := d.Collection()
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Doña Ana", fc.Features[0].Properties["NAME"])
	assert.Equal(t, "35013", fc.Features[0].ID)
}

func TestDocument_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"type": "FeatureCollection", "features": [`},
		{"not a feature collection", `{"type": "Topology", "objects": {}}`},
		{"features is not a list", `{"type": "FeatureCollection", "features": 7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestDocument(t, tt.doc).Collection()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedSource))
		})
	}
}

func TestDocument_Key(t *testing.T) {
	plain := NewDocument("boundaries.json")
	latin := NewDocument("boundaries.json", WithLatin1())

	assert.Equal(t, plain.Key(), NewDocument("boundaries.json").Key())
	assert.NotEqual(t, plain.Key(), latin.Key())
}
