package atlas

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseatlas/pkg/config"
	"caseatlas/pkg/errors"
	"caseatlas/pkg/testutil"
)

const countyBoundaries = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": null, "properties": {"STATE": "42", "COUNTY": "003"}},
		{"type": "Feature", "geometry": null, "properties": {"STATE": "42", "COUNTY": "101"}},
		{"type": "Feature", "geometry": null, "properties": {"STATE": "06", "COUNTY": "037"}}
	]
}`

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testAtlas(t *testing.T) *Atlas {
	t.Helper()
	dir := t.TempDir()

	testutil.WriteCSV(t, dir, "us.csv",
		[]string{"date", "cases", "deaths"},
		[][]string{
			{"2020-09-26", "7075043", "204225"},
			{"2020-09-27", "7115338", "204758"},
		})
	testutil.WriteCSV(t, dir, "us-states.csv",
		[]string{"date", "state", "fips", "cases", "deaths"},
		[][]string{
			{"2020-09-26", "California", "06", "793423", "15587"},
			{"2020-09-27", "California", "06", "797816", "15608"},
			{"2020-09-26", "Pennsylvania", "42", "154612", "8093"},
			{"2020-09-27", "Pennsylvania", "42", "155614", "8112"},
		})
	testutil.WriteCSV(t, dir, "us-counties.csv",
		[]string{"date", "county", "state", "fips", "cases", "deaths"},
		[][]string{
			{"2020-09-26", "Allegheny", "Pennsylvania", "42003", "11300", "405"},
			{"2020-09-27", "Allegheny", "Pennsylvania", "42003", "11500", "412"},
			{"2020-09-27", "Philadelphia", "Pennsylvania", "42101", "36000", "1780"},
			{"2020-09-26", "Los Angeles", "California", "06037", "268103", "6501"},
		})
	testutil.WriteGeoJSON(t, dir, "counties.json", countyBoundaries)

	cfg := &config.Config{
		Levels: []config.LevelSource{
			{Name: "country", Path: filepath.Join(dir, "us.csv")},
			{Name: "state", Path: filepath.Join(dir, "us-states.csv")},
			{Name: "county", Path: filepath.Join(dir, "us-counties.csv")},
		},
		Geo: []config.GeoSource{
			{Name: "county", Path: filepath.Join(dir, "counties.json")},
		},
	}

	a, err := New(cfg, WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	t.Run("nil config falls back to defaults", func(t *testing.T) {
		a, err := New(nil, WithLogger(testutil.TestLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, []string{"country", "state", "county"}, a.Config().LevelNames())
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		_, err := New(&config.Config{})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestAtlas_Level(t *testing.T) {
	a := testAtlas(t)

	first, err := a.Level("state")
	require.NoError(t, err)
	second, err := a.Level("state")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = a.Level("tract")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestAtlas_Query(t *testing.T) {
	a := testAtlas(t)

	t.Run("country", func(t *testing.T) {
		res, err := a.Query(Query{Level: "country"})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Frame.Len())
		assert.Equal(t, "the United States", res.DisplayName)
	})

	t.Run("state on one day", func(t *testing.T) {
		d := day("2020-09-27")
		res, err := a.Query(Query{Level: "state", Region: "42", Day: &d})
		require.NoError(t, err)
		require.Equal(t, 1, res.Frame.Len())
		assert.Equal(t, "Pennsylvania", res.DisplayName)

		cases, err := res.Frame.Ints("cases")
		require.NoError(t, err)
		assert.Equal(t, []int64{155614}, cases)
	})

	t.Run("county series", func(t *testing.T) {
		res, err := a.Query(Query{Level: "county", Region: "42003"})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Frame.Len())
		assert.Equal(t, "Allegheny, Pennsylvania", res.DisplayName)
	})

	t.Run("equal queries return the identical frame", func(t *testing.T) {
		first, err := a.Query(Query{Level: "county", Region: "42"})
		require.NoError(t, err)
		second, err := a.Query(Query{Level: "county", Region: "42"})
		require.NoError(t, err)
		assert.Same(t, first.Frame, second.Frame)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := a.Query(Query{Level: "tract"})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestAtlas_QueryMissingSource(t *testing.T) {
	// Default paths point at files that do not exist here; construction
	// succeeds and the failure surfaces on query, retryably.
	a, err := New(config.Default(), WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	_, err = a.Query(Query{Level: "country"})
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestAtlas_Subregions(t *testing.T) {
	a := testAtlas(t)

	t.Run("states of the country", func(t *testing.T) {
		f, err := a.Subregions("country", "")
		require.NoError(t, err)
		assert.Equal(t, 4, f.Len())
	})

	t.Run("counties of a state", func(t *testing.T) {
		f, err := a.Subregions("state", "42")
		require.NoError(t, err)
		assert.Equal(t, 3, f.Len())

		codes, err := f.Strings("fips")
		require.NoError(t, err)
		assert.Equal(t, []string{"42003", "42003", "42101"}, codes)
	})

	t.Run("finest level has no subregions", func(t *testing.T) {
		_, err := a.Subregions("county", "42003")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := a.Subregions("tract", "")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestAtlas_RegionFeatures(t *testing.T) {
	a := testAtlas(t)

	sub, err := a.RegionFeatures("county", "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"42003", "42101"}, sub.IDs())

	again, err := a.RegionFeatures("county", "42")
	require.NoError(t, err)
	assert.Same(t, sub, again)

	_, err = a.RegionFeatures("state", "42")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestAtlas_CountryLabel(t *testing.T) {
	cfg := config.Default()
	cfg.CountryLabel = "the nation"

	a, err := New(cfg, WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	level, err := a.Level("country")
	require.NoError(t, err)
	name, err := level.Region("").DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "the nation", name)
}
