package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"caseatlas/internal/atlas"
	"caseatlas/pkg/config"
	"caseatlas/pkg/frame"
	"caseatlas/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var configFile string

	root := &cobra.Command{
		Use:   "caseatlas",
		Short: "caseatlas - regional case-count queries over tiered sources",
		Long: `caseatlas answers case-count queries over geographically tiered
source files (country, state, county). Every source is parsed at most once
per process and every filtered slice is computed at most once, so repeating
a query with equal parameters is a cache hit.`,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "caseatlas.yaml", "Path to YAML configuration file")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("caseatlas v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Levels command to show the configured catalog
	root.AddCommand(&cobra.Command{
		Use:   "levels",
		Short: "List configured levels and boundary documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAtlas(configFile, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			printCatalog(a.Config())
			return nil
		},
	})

	// Main query command
	var (
		queryLevel   string
		queryRegion  string
		queryDate    string
		queryColumns []string
		queryLimit   int
		queryFormat  string
	)

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Materialize one slice of the case data",
		Long: `Materialize one slice of the case data: a granularity level, narrowed
to region codes sharing a prefix, optionally to a single day.

Example:
  caseatlas query --level county --region 42003 --date 2020-09-27`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(queryOptions{
				configFile:     configFile,
				configExplicit: cmd.Flags().Changed("config"),
				level:          queryLevel,
				region:         queryRegion,
				date:           queryDate,
				columns:        queryColumns,
				limit:          queryLimit,
				format:         queryFormat,
			})
		},
	}
	queryCmd.Flags().StringVar(&queryLevel, "level", "", "Configured level name (required)")
	queryCmd.Flags().StringVar(&queryRegion, "region", "", "Region-code prefix; empty selects every row")
	queryCmd.Flags().StringVar(&queryDate, "date", "", "Single day in 2006-01-02 form")
	queryCmd.Flags().StringSliceVar(&queryColumns, "columns", nil, "Columns to print (default: all)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Print at most this many rows (0 = all)")
	queryCmd.Flags().StringVar(&queryFormat, "format", "table", "Output format (table, json)")
	_ = queryCmd.MarkFlagRequired("level")
	root.AddCommand(queryCmd)

	// Subregions command
	var (
		subLevel  string
		subRegion string
		subFormat string
	)

	subregionsCmd := &cobra.Command{
		Use:   "subregions",
		Short: "List the next finer level's rows within a region",
		Long: `List the rows of the next configured level narrowed to the same
region-code prefix: the states of the country, the counties of a state.

Example:
  caseatlas subregions --level state --region 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubregions(configFile, cmd.Flags().Changed("config"), subLevel, subRegion, subFormat)
		},
	}
	subregionsCmd.Flags().StringVar(&subLevel, "level", "", "Configured level name (required)")
	subregionsCmd.Flags().StringVar(&subRegion, "region", "", "Region-code prefix; empty selects every row")
	subregionsCmd.Flags().StringVar(&subFormat, "format", "table", "Output format (table, json)")
	_ = subregionsCmd.MarkFlagRequired("level")
	root.AddCommand(subregionsCmd)

	// Geo command
	var (
		geoDoc    string
		geoRegion string
		geoIDs    bool
	)

	geoCmd := &cobra.Command{
		Use:   "geo",
		Short: "Summarize a boundary document subset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGeo(configFile, cmd.Flags().Changed("config"), geoDoc, geoRegion, geoIDs)
		},
	}
	geoCmd.Flags().StringVar(&geoDoc, "doc", "", "Configured geo document name (required)")
	geoCmd.Flags().StringVar(&geoRegion, "region", "", "Region-code prefix; empty selects every feature")
	geoCmd.Flags().BoolVar(&geoIDs, "ids", false, "Print each matching feature's region code")
	_ = geoCmd.MarkFlagRequired("doc")
	root.AddCommand(geoCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configured file. When the default path is simply
// absent, built-in defaults apply; an explicitly given missing path is
// an error.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newAtlas loads configuration, initializes logging per its settings,
// and builds the atlas. Logs go to stderr so stdout stays clean for
// command output.
func newAtlas(configFile string, explicit bool) (*atlas.Atlas, error) {
	cfg, err := loadConfig(configFile, explicit)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	encoding := cfg.Logging.Encoding
	if encoding == "" {
		encoding = "console"
	}
	if err := logger.Init(logger.Config{
		Level:       level,
		Encoding:    encoding,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return atlas.New(cfg)
}

func printCatalog(cfg *config.Config) {
	fmt.Println("Configured levels (coarsest first):")
	for _, level := range cfg.Levels {
		fmt.Printf("  - %s: %s\n", level.Name, level.Path)
	}
	if len(cfg.Geo) == 0 {
		return
	}
	fmt.Println("\nBoundary documents:")
	for _, geo := range cfg.Geo {
		if geo.Latin1 {
			fmt.Printf("  - %s: %s (latin-1)\n", geo.Name, geo.Path)
		} else {
			fmt.Printf("  - %s: %s\n", geo.Name, geo.Path)
		}
	}
}

type queryOptions struct {
	configFile     string
	configExplicit bool
	level          string
	region         string
	date           string
	columns        []string
	limit          int
	format         string
}

// runQuery resolves and materializes one slice and renders it.
func runQuery(opts queryOptions) error {
	a, err := newAtlas(opts.configFile, opts.configExplicit)
	if err != nil {
		return err
	}

	q := atlas.Query{Level: opts.level, Region: opts.region}
	if opts.date != "" {
		day, err := time.Parse("2006-01-02", opts.date)
		if err != nil {
			return fmt.Errorf("failed to parse date %q (want 2006-01-02): %w", opts.date, err)
		}
		q.Day = &day
	}

	res, err := a.Query(q)
	if err != nil {
		return err
	}

	f := res.Frame
	if len(opts.columns) > 0 {
		if f, err = f.Select(opts.columns...); err != nil {
			return err
		}
	}
	if opts.limit > 0 {
		f = f.Head(opts.limit)
	}

	switch opts.format {
	case "table":
		fmt.Printf("%s: %d rows\n", res.DisplayName, res.Frame.Len())
		return printTable(f)
	case "json":
		return printJSON(map[string]interface{}{
			"display_name": res.DisplayName,
			"level":        res.Level,
			"region":       res.Prefix,
			"rows":         frameRecords(f),
		})
	default:
		return fmt.Errorf("unknown format %q: want table or json", opts.format)
	}
}

func runSubregions(configFile string, explicit bool, level, region, format string) error {
	a, err := newAtlas(configFile, explicit)
	if err != nil {
		return err
	}

	f, err := a.Subregions(level, region)
	if err != nil {
		return err
	}

	switch format {
	case "table":
		fmt.Printf("%d rows in the level below %q\n", f.Len(), level)
		return printTable(f)
	case "json":
		return printJSON(frameRecords(f))
	default:
		return fmt.Errorf("unknown format %q: want table or json", format)
	}
}

func runGeo(configFile string, explicit bool, doc, region string, ids bool) error {
	a, err := newAtlas(configFile, explicit)
	if err != nil {
		return err
	}

	sub, err := a.RegionFeatures(doc, region)
	if err != nil {
		return err
	}

	fmt.Printf("%d features match prefix %q in %s\n", sub.Len(), region, doc)
	if ids {
		for _, id := range sub.IDs() {
			fmt.Printf("  - %s\n", id)
		}
	}
	return nil
}

// printTable renders the frame as an aligned table on stdout.
func printTable(f *frame.Frame) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(f.Columns(), "\t"))
	for i := 0; i < f.Len(); i++ {
		fmt.Fprintln(w, strings.Join(f.Row(i), "\t"))
	}
	return w.Flush()
}

// frameRecords shapes rows as name->value records for JSON output.
func frameRecords(f *frame.Frame) []map[string]interface{} {
	names := f.Columns()
	columns := make([]frame.Column, len(names))
	for i, name := range names {
		// Names come from the frame itself, so the lookup cannot miss.
		columns[i], _ = f.Column(name)
	}

	records := make([]map[string]interface{}, f.Len())
	for i := range records {
		record := make(map[string]interface{}, len(names))
		for n, name := range names {
			record[name] = columns[n].Value(i)
		}
		records[i] = record
	}
	return records
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
