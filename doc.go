// Package caseatlas answers regional case-count queries over geographically
// tiered source files (country, state, county) with at-most-once parsing
// and at-most-once filtering per process.
//
// Data slices form a hierarchy: a granularity level is narrowed to the
// region codes sharing a prefix, and a region is narrowed to a single day.
// Every node in that hierarchy is a parameter-keyed singleton, so equal
// parameters always return the same object, and each node materializes its
// rows lazily, exactly once, no matter how many goroutines ask first.
//
// # Architecture
//
// caseatlas is built on three principles:
//
// 1. Identity By Parameters: Level, Region, and Date nodes are interned in
// a registry keyed by their construction parameters. Equality of parameters
// means pointer equality of nodes, which makes memoization sound.
//
// 2. Lazy Single Materialization: Nothing is read or filtered at
// construction time. A node computes its frame on first access, caches the
// result forever, and never caches a failure, so transient source errors
// stay retryable.
//
// 3. Shared Immutable Data: Frames and boundary documents are read-only
// after materialization. Derived slices share backing columns and feature
// pointers with their parents instead of copying.
//
// # Quick Start
//
// Resolve a county for one day:
//
//	import (
//	    "caseatlas/internal/atlas"
//	    "caseatlas/pkg/config"
//	)
//
//	a, err := atlas.New(config.Default())
//	if err != nil {
//	    return err
//	}
//
//	day := time.Date(2020, 9, 27, 0, 0, 0, 0, time.UTC)
//	res, err := a.Query(atlas.Query{Level: "county", Region: "42003", Day: &day})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.DisplayName, res.Frame.Len())
//
// # Key Packages
//
//	internal/atlas - Configuration-driven facade over the node hierarchy
//	pkg/dataset    - Level/Region/Date nodes, registry, display names
//	pkg/frame      - Read-only tabular dataset model
//	pkg/tabular    - CSV parsing with typed, code-preserving columns
//	pkg/geojson    - Boundary documents with id synthesis and subsets
//	pkg/lazy       - Materialize-at-most-once cell
//	pkg/config     - YAML configuration with ${VAR_NAME} substitution
//	pkg/errors     - Structured error handling
//	pkg/logger     - Structured logging
//	pkg/metrics    - Materialization and cache metrics
//
// # Configuration
//
// Levels are configured coarsest first; each names a CSV source. Boundary
// documents name GeoJSON sources and may be declared Latin-1 encoded:
//
//	levels:
//	  - name: country
//	    path: ${CASEATLAS_DATA_DIR}/us.csv
//	  - name: state
//	    path: ${CASEATLAS_DATA_DIR}/us-states.csv
//	  - name: county
//	    path: ${CASEATLAS_DATA_DIR}/us-counties.csv
//	geo:
//	  - name: county
//	    path: ${CASEATLAS_DATA_DIR}/counties.json
//	    latin1: true
//
// Environment variables are supported with ${VAR_NAME} syntax.
//
// # Command Line
//
// The caseatlas binary exposes the same operations:
//
//	caseatlas levels
//	caseatlas query --level county --region 42003 --date 2020-09-27
//	caseatlas subregions --level state --region 42
//	caseatlas geo --doc county --region 35 --ids
package caseatlas
