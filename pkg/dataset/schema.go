package dataset

import (
	"caseatlas/pkg/frame"
	"caseatlas/pkg/tabular"
)

// Column names shared by level sources. Coarser sources simply omit
// the columns below their granularity: the national file has no fips,
// the state file no county.
const (
	ColumnDate   = "date"
	ColumnRegion = "fips"
	ColumnCases  = "cases"
	ColumnDeaths = "deaths"
	ColumnState  = "state"
	ColumnCounty = "county"
)

// stateCodeLen is the length of a state-level FIPS code; longer codes
// identify counties.
const stateCodeLen = 2

// levelSchema returns the parse schema for level sources: region codes
// stay strings so leading zeros survive, dates parse as calendar days.
func levelSchema() tabular.Schema {
	return tabular.Schema{
		Kinds: map[string]frame.Kind{
			ColumnRegion: frame.KindString,
			ColumnDate:   frame.KindTime,
		},
	}
}
