// Package config loads lattice run configuration from JSON files. Comments
// and trailing commas are accepted.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// maxFileSize bounds the size of configuration files.
const maxFileSize = 1 << 20

// Config is the run configuration of the lattice command.
type Config struct {
	// Workers is the number of jobs run concurrently. Zero uses GOMAXPROCS.
	Workers int `json:"workers"`
	// FailFast cancels remaining jobs after the first failure.
	FailFast bool `json:"fail_fast"`
	// Repeat runs every job this many times. Used for throughput testing.
	Repeat int `json:"repeat"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"log_level"`
	// LogFormat is text or json.
	LogFormat string `json:"log_format"`
	// OutputFormat is the lattice file extension used when no output path
	// is given: obj, ply or stl.
	OutputFormat string `json:"output_format"`

	Preview Preview `json:"preview"`
	Sample  Sample  `json:"sample"`
}

// Preview configures PNG previews.
type Preview struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Supersample int     `json:"supersample"`
	StrutRadius float64 `json:"strut_radius"`
}

// Sample configures synthetic seed clouds.
type Sample struct {
	Shape string  `json:"shape"`
	Count int     `json:"count"`
	Seed  int64   `json:"seed"`
	Size  float64 `json:"size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workers:      0,
		Repeat:       1,
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: "obj",
		Preview: Preview{
			Width:       1024,
			Height:      768,
			Supersample: 2,
			StrutRadius: 2e-3,
		},
		Sample: Sample{
			Shape: "sphere",
			Count: 1000,
			Seed:  1,
			Size:  1,
		},
	}
}

// Load reads the configuration at path. The file must have a .json
// extension. Fields omitted from the file keep their Default value.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.Repeat < 1 {
		return fmt.Errorf("repeat must be at least 1, got %d", c.Repeat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	switch c.OutputFormat {
	case "obj", "ply", "stl":
	default:
		return fmt.Errorf("output_format must be obj, ply or stl, got %q", c.OutputFormat)
	}
	p := c.Preview
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("preview size must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Supersample < 1 || p.Supersample > 8 {
		return fmt.Errorf("preview supersample must be in [1,8], got %d", p.Supersample)
	}
	if !(p.StrutRadius > 0) {
		return fmt.Errorf("preview strut_radius must be positive, got %g", p.StrutRadius)
	}
	s := c.Sample
	if s.Count < 0 {
		return fmt.Errorf("sample count must be non-negative, got %d", s.Count)
	}
	if !(s.Size > 0) {
		return fmt.Errorf("sample size must be positive, got %g", s.Size)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
