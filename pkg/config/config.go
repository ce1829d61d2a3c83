// Package config defines the configuration for a caseatlas deployment:
// which granularity sources exist, which boundary documents back the
// maps, and how the process logs.
//
// Configuration is loaded from YAML with ${VAR_NAME} environment
// substitution, so source paths can point at a data directory chosen
// at deploy time:
//
//	levels:
//	  - name: state
//	    path: ${CASEATLAS_DATA_DIR}/us-states.csv
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"caseatlas/pkg/errors"
)

// LevelSource describes one granularity tier's backing file.
type LevelSource struct {
	// Name identifies the tier (e.g., "country", "state", "county")
	Name string `yaml:"name" json:"name"`
	// Path locates the delimited source file; .gz files are read
	// transparently
	Path string `yaml:"path" json:"path"`
}

// GeoSource describes one boundary document.
type GeoSource struct {
	// Name identifies the document (conventionally a tier name)
	Name string `yaml:"name" json:"name"`
	// Path locates the GeoJSON file
	Path string `yaml:"path" json:"path"`
	// Latin1 marks sources encoded as ISO-8859-1 rather than UTF-8
	Latin1 bool `yaml:"latin1" json:"latin1"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level sets verbosity (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`
	// Encoding selects the output format (json, console)
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables human-friendly stack traces and output
	Development bool `yaml:"development" json:"development"`
}

// Config is the root configuration structure.
type Config struct {
	// Levels lists granularity sources from coarsest to finest; order
	// defines the drill-down chain
	Levels []LevelSource `yaml:"levels" json:"levels"`

	// Geo lists boundary documents by name
	Geo []GeoSource `yaml:"geo" json:"geo"`

	// CountryLabel names the prefix-less region in display names;
	// empty means the built-in default
	CountryLabel string `yaml:"country_label" json:"country_label"`

	// Logging controls log output
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// Default returns a configuration for the standard per-tier case
// file layout under data/.
func Default() *Config {
	return &Config{
		Levels: []LevelSource{
			{Name: "country", Path: "data/us.csv"},
			{Name: "state", Path: "data/us-states.csv"},
			{Name: "county", Path: "data/us-counties.csv"},
		},
		Geo: []GeoSource{
			{Name: "state", Path: "data/geojson-states-fips.json"},
			{Name: "county", Path: "data/geojson-counties-fips.json", Latin1: true},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads, substitutes, parses, and validates the configuration at
// path. Fields absent from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", path)
	}

	content := substituteEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").
			WithDetail("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", path)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}

// Validate checks the configuration for correctness. It ensures at
// least one level exists, names are unique and non-empty, paths are
// set, and logging fields hold known values.
func (c *Config) Validate() error {
	if len(c.Levels) == 0 {
		return errors.New(errors.ErrorTypeConfig, "at least one level is required")
	}

	levelNames := make(map[string]bool, len(c.Levels))
	for i, level := range c.Levels {
		if level.Name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "level %d: name is required", i)
		}
		if level.Path == "" {
			return errors.Newf(errors.ErrorTypeConfig, "level %q: path is required", level.Name)
		}
		if levelNames[level.Name] {
			return errors.Newf(errors.ErrorTypeConfig, "level %q: duplicate name", level.Name)
		}
		levelNames[level.Name] = true
	}

	geoNames := make(map[string]bool, len(c.Geo))
	for i, geo := range c.Geo {
		if geo.Name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "geo %d: name is required", i)
		}
		if geo.Path == "" {
			return errors.Newf(errors.ErrorTypeConfig, "geo %q: path is required", geo.Name)
		}
		if geoNames[geo.Name] {
			return errors.Newf(errors.ErrorTypeConfig, "geo %q: duplicate name", geo.Name)
		}
		geoNames[geo.Name] = true
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "logging level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "logging encoding %q is not one of json, console", c.Logging.Encoding)
	}
	return nil
}

// FindLevel returns the level source with the given name.
func (c *Config) FindLevel(name string) (LevelSource, bool) {
	for _, level := range c.Levels {
		if level.Name == name {
			return level, true
		}
	}
	return LevelSource{}, false
}

// FindGeo returns the boundary source with the given name.
func (c *Config) FindGeo(name string) (GeoSource, bool) {
	for _, geo := range c.Geo {
		if geo.Name == name {
			return geo, true
		}
	}
	return GeoSource{}, false
}

// LevelNames returns the configured level names, coarsest first.
func (c *Config) LevelNames() []string {
	names := make([]string, len(c.Levels))
	for i, level := range c.Levels {
		names[i] = level.Name
	}
	return names
}

// NextLevel returns the level configured after name, the next finer
// granularity in the drill-down chain.
func (c *Config) NextLevel(name string) (LevelSource, bool) {
	for i, level := range c.Levels {
		if level.Name == name && i+1 < len(c.Levels) {
			return c.Levels[i+1], true
		}
	}
	return LevelSource{}, false
}

// String describes the configuration in one line for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("levels=%v geo=%d", c.LevelNames(), len(c.Geo))
}
