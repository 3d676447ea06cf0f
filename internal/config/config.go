// Package config loads the server and CLI settings.
//
// Settings come from three layers, each overriding the previous one: the
// defaults in Default, an optional TOML file, and the MORPH_MCP_* environment
// variables. Command-line flags are applied on top by the cli package.
//
// Example file:
//
//	workers = 8
//	connectivity = "full"
//	max_iterations = 10000
//	log_level = "debug"
//
//	[http]
//	addr = "127.0.0.1:8080"
//
//	[cache]
//	max_images = 32
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "MORPH_MCP_LOG_LEVEL"
	EnvWorkers  = "MORPH_MCP_WORKERS"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid setting")

// Config holds every tunable of the server.
type Config struct {
	// Workers is the goroutine count per erosion pass; 0 means GOMAXPROCS.
	Workers int `toml:"workers"`

	// Connectivity is the default structuring element, "face" or "full".
	Connectivity string `toml:"connectivity"`

	// MaxIterations caps reconstructions; 0 means no cap.
	MaxIterations int `toml:"max_iterations"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `toml:"log_level"`

	HTTP  HTTPConfig  `toml:"http"`
	Cache CacheConfig `toml:"cache"`
}

// HTTPConfig configures the optional HTTP transport.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig configures the decoded image cache.
type CacheConfig struct {
	// MaxImages bounds the cache; 0 means unbounded.
	MaxImages int `toml:"max_images"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Workers:       0,
		Connectivity:  "face",
		MaxIterations: 0,
		LogLevel:      "info",
		HTTP:          HTTPConfig{Addr: "127.0.0.1:8080"},
		Cache:         CacheConfig{MaxImages: 64},
	}
}

// Load builds a Config from the defaults, the TOML file at path (skipped
// when path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, EnvWorkers, v)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalid, c.Workers)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must be >= 0, got %d", ErrInvalid, c.MaxIterations)
	}
	if c.Cache.MaxImages < 0 {
		return fmt.Errorf("%w: cache.max_images must be >= 0, got %d", ErrInvalid, c.Cache.MaxImages)
	}
	if _, err := morph.ParseConnectivity(c.Connectivity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// ConnectivityValue returns the parsed connectivity, Face if it is invalid.
func (c *Config) ConnectivityValue() morph.Connectivity {
	conn, err := morph.ParseConnectivity(c.Connectivity)
	if err != nil {
		return morph.Face
	}
	return conn
}

// Level returns the parsed log level, Info if it is invalid.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
