// Package config provides configuration management for the ATL08 extractor.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/robert-malhotra/atl08-extract/internal/filter"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ATL08_"

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Extract ExtractConfig `envPrefix:"EXTRACT_"`
	Filter  FilterConfig  `envPrefix:"FILTER_"`
	CMR     CMRConfig     `envPrefix:"CMR_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// ExtractConfig controls granule conversion.
type ExtractConfig struct {
	Input     string `env:"INPUT"`
	OutputDir string `env:"OUTPUT_DIR"`
	Fine      bool   `env:"FINE" envDefault:"false"`
	Overwrite bool   `env:"OVERWRITE" envDefault:"true"`
	NodataNaN bool   `env:"NODATA_NAN" envDefault:"false"`
	FlagNames bool   `env:"FLAG_NAMES" envDefault:"false"`
	Compress  bool   `env:"COMPRESS" envDefault:"false"`
	// Catalog is an optional YAML field catalog replacing the built-in one.
	Catalog string `env:"CATALOG"`
}

// FilterConfig contains the quality and geographic filter settings.
type FilterConfig struct {
	Quality         bool    `env:"QUALITY" envDefault:"true"`
	MinMonth        int     `env:"MIN_MONTH" envDefault:"1"`
	MaxMonth        int     `env:"MAX_MONTH" envDefault:"12"`
	MaxCanopyHeight float64 `env:"MAX_CANOPY_HEIGHT" envDefault:"100"`
	MaxHeightDiff   float64 `env:"MAX_HEIGHT_DIFF" envDefault:"25"`
	MaxSigmaTopo    float64 `env:"MAX_SIGMA_TOPO" envDefault:"2.5"`

	Geo    bool    `env:"GEO" envDefault:"true"`
	MinLon float64 `env:"MIN_LON" envDefault:"-180"`
	MaxLon float64 `env:"MAX_LON" envDefault:"180"`
	MinLat float64 `env:"MIN_LAT" envDefault:"30"`
	MaxLat float64 `env:"MAX_LAT" envDefault:"90"`
}

// CMRConfig contains CMR API client configuration.
type CMRConfig struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://cmr.earthdata.nasa.gov/search"`
	Provider  string        `env:"PROVIDER" envDefault:"NSIDC_CPRD"`
	ShortName string        `env:"SHORT_NAME" envDefault:"ATL08"`
	Version   string        `env:"VERSION" envDefault:"006"`
	ConceptID string        `env:"CONCEPT_ID"`
	Token     string        `env:"TOKEN"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
	// ToFile also writes the log to a file in the output directory.
	ToFile bool `env:"TO_FILE" envDefault:"false"`
}

// Load parses configuration from environment variables.
// It returns an error if a value is malformed or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		Prefix: EnvPrefix,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	// Validate filter config
	if c.Filter.MinMonth < 1 || c.Filter.MinMonth > 12 {
		return fmt.Errorf("min month must be between 1 and 12, got %d", c.Filter.MinMonth)
	}

	if c.Filter.MaxMonth < 1 || c.Filter.MaxMonth > 12 {
		return fmt.Errorf("max month must be between 1 and 12, got %d", c.Filter.MaxMonth)
	}

	if c.Filter.MinMonth > c.Filter.MaxMonth {
		return fmt.Errorf("min month (%d) must be <= max month (%d)", c.Filter.MinMonth, c.Filter.MaxMonth)
	}

	if c.Filter.MaxCanopyHeight <= 0 {
		return fmt.Errorf("max canopy height must be positive, got %g", c.Filter.MaxCanopyHeight)
	}

	if c.Filter.MaxHeightDiff <= 0 {
		return fmt.Errorf("max height difference must be positive, got %g", c.Filter.MaxHeightDiff)
	}

	if c.Filter.MaxSigmaTopo <= 0 {
		return fmt.Errorf("max sigma topo must be positive, got %g", c.Filter.MaxSigmaTopo)
	}

	if c.Filter.Geo {
		if err := c.Filter.BBox().Validate(); err != nil {
			return fmt.Errorf("invalid geographic filter: %w", err)
		}
	}

	// Validate CMR config
	if c.CMR.BaseURL == "" {
		return fmt.Errorf("CMR base URL is required")
	}

	if c.CMR.Timeout <= 0 {
		return fmt.Errorf("CMR timeout must be positive, got %s", c.CMR.Timeout)
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// ValidateExtract checks the settings the extract command needs on top of
// Validate.
func (c *Config) ValidateExtract() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Extract.Input == "" {
		return fmt.Errorf("input granule is required")
	}
	return nil
}

// Thresholds returns the quality screen described by the filter settings.
func (f FilterConfig) Thresholds() filter.Thresholds {
	return filter.Thresholds{
		MaxCanopyHeight: f.MaxCanopyHeight,
		MaxHeightDiff:   f.MaxHeightDiff,
		MaxSigmaTopo:    f.MaxSigmaTopo,
		MinMonth:        f.MinMonth,
		MaxMonth:        f.MaxMonth,
	}
}

// BBox returns the geographic filter box.
func (f FilterConfig) BBox() filter.BBox {
	return filter.BBox{
		MinLon: f.MinLon,
		MaxLon: f.MaxLon,
		MinLat: f.MinLat,
		MaxLat: f.MaxLat,
	}
}
