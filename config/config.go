// Package config loads framedoc settings.
//
// Precedence, lowest first: built-in defaults, the TOML file, FRAMEDOC_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/gaurav-prasanna/framedoc/acquire"
	"github.com/gaurav-prasanna/framedoc/core/assemble"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Sampling controls which frames become pages.
type Sampling struct {
	IntervalSeconds float64 `toml:"interval_seconds" env:"INTERVAL_SECONDS"`
	MaxFrames       int     `toml:"max_frames" env:"MAX_FRAMES"`
}

// Page controls layout and image encoding.
type Page struct {
	Geometry     assemble.Geometry `toml:"geometry"`
	AllowUpscale bool              `toml:"allow_upscale" env:"ALLOW_UPSCALE"`
	JPEGQuality  int               `toml:"jpeg_quality" env:"JPEG_QUALITY"`
	SpoolToDisk  bool              `toml:"spool_to_disk" env:"SPOOL_TO_DISK"`
}

// Acquire controls the video acquisition collaborators.
type Acquire struct {
	Quality            string `toml:"quality" env:"QUALITY"`
	YTDLPBinary        string `toml:"ytdlp_binary" env:"YTDLP_BINARY"`
	DisableYTDLP       bool   `toml:"disable_ytdlp" env:"DISABLE_YTDLP"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds" env:"HTTP_TIMEOUT_SECONDS"`
	UserAgent          string `toml:"user_agent" env:"USER_AGENT"`
}

// Output controls where and how artifacts are written.
type Output struct {
	Dir    string `toml:"dir" env:"OUTPUT_DIR"`
	Format string `toml:"format" env:"OUTPUT_FORMAT"`
}

// Paths contains working locations.
type Paths struct {
	TempDir     string `toml:"temp_dir" env:"TEMP_DIR"`
	HistoryPath string `toml:"history_path" env:"HISTORY_PATH"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

// Config is the full framedoc configuration.
type Config struct {
	Sampling Sampling `toml:"sampling"`
	Page     Page     `toml:"page"`
	Acquire  Acquire  `toml:"acquire"`
	Output   Output   `toml:"output"`
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
}

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

const envPrefix = "FRAMEDOC_"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sampling: Sampling{IntervalSeconds: 30, MaxFrames: 20},
		Page: Page{
			Geometry:     assemble.DefaultGeometry(),
			AllowUpscale: true,
			JPEGQuality:  95,
		},
		Acquire: Acquire{
			Quality:            acquire.QualityBest,
			HTTPTimeoutSeconds: 30,
		},
		Output: Output{Format: FormatPDF},
		Paths: Paths{
			HistoryPath: defaultHistoryPath(),
		},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// Load reads path (or the default location when path is empty), applies
// environment overrides, and validates the result. A missing file at the
// default location is not an error.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	path = expandHome(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		path = ""
	default:
		return nil, path, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, path, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// DefaultPath is $XDG_CONFIG_HOME/framedoc/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "framedoc", "config.toml")
}

// SampleConfig returns an annotated example configuration.
func SampleConfig() string {
	return sampleConfig
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c *Config) normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Acquire.Quality = strings.ToLower(strings.TrimSpace(c.Acquire.Quality))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Output.Dir = expandHome(c.Output.Dir)
	c.Paths.TempDir = expandHome(c.Paths.TempDir)
	c.Paths.HistoryPath = expandHome(c.Paths.HistoryPath)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Sampling.IntervalSeconds > 0) {
		errs = append(errs, fmt.Errorf("sampling.interval_seconds must be > 0 (got %v)", c.Sampling.IntervalSeconds))
	}
	if c.Sampling.MaxFrames <= 0 {
		errs = append(errs, fmt.Errorf("sampling.max_frames must be > 0 (got %d)", c.Sampling.MaxFrames))
	}
	if err := c.Page.Geometry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("page.geometry: %w", err))
	}
	if c.Page.JPEGQuality < 1 || c.Page.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("page.jpeg_quality must be within 1-100 (got %d)", c.Page.JPEGQuality))
	}
	if !acquire.ValidQuality(c.Acquire.Quality) {
		errs = append(errs, fmt.Errorf("acquire.quality must be one of %s (got %q)",
			strings.Join(acquire.Qualities, ", "), c.Acquire.Quality))
	}
	if c.Acquire.HTTPTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("acquire.http_timeout_seconds must be >= 0"))
	}
	switch c.Output.Format {
	case FormatPDF, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output.format must be %q or %q (got %q)", FormatPDF, FormatJSON, c.Output.Format))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "framedoc", "history.db")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
