package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sipa-dev/sipa/internal/errors"
)

const (
	// DefaultRenderPeriod is the minimum interval between two renders of one instance.
	DefaultRenderPeriod = 200 * time.Millisecond

	// DefaultInspectorAddr is the default listen address of the inspector server.
	DefaultInspectorAddr = "localhost:7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "sipa"
)

// FileNames are the config file names looked up by Load, in order.
var FileNames = []string{"sipa.yaml", "sipa.yml", "sipa.json"}

// Config is the complete project configuration.
type Config struct {
	Render    RenderConfig    `json:"render" yaml:"render"`
	Inspector InspectorConfig `json:"inspector" yaml:"inspector"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`

	path string
}

// RenderConfig configures the component engine.
type RenderConfig struct {
	// Period is the render coalescing window ("0" disables coalescing).
	Period string `json:"period,omitempty" yaml:"period,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

// InspectorConfig configures the inspector HTTP server.
type InspectorConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Disabled turns the inspector off.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// StoreConfig configures the persistent tier of the state store.
type StoreConfig struct {
	// BoltPath is the bbolt database file. Empty keeps the persistent tier in memory.
	BoltPath string `json:"boltPath,omitempty" yaml:"boltPath,omitempty"`

	// S3 selects an S3 bucket as persistent backend; it wins over BoltPath.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config names the bucket used by the S3 backend.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Render: RenderConfig{
			Period:   DefaultRenderPeriod.String(),
			LogLevel: "info",
		},
		Inspector: InspectorConfig{
			Addr: DefaultInspectorAddr,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads the first config file found in dir. When none exists the
// defaults are returned.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the given file. The format follows the
// extension: .json is decoded as JSON, anything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("S401").Wrap(err).
			WithDetail("Could not read " + path)
	}

	cfg := New()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("S402").Wrap(err).
			WithDetail("Failed to parse " + filepath.Base(path)).
			WithSuggestion("Check the file against the documented schema")
	}

	cfg.path = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Render.Period == "" {
		c.Render.Period = DefaultRenderPeriod.String()
	}
	if c.Render.LogLevel == "" {
		c.Render.LogLevel = "info"
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Render.Period)
	if err != nil {
		return errors.New("S403").Wrap(err).
			WithDetailf("render.period %q is not a duration", c.Render.Period)
	}
	if d < 0 {
		return errors.New("S403").
			WithDetailf("render.period must not be negative, got %s", d)
	}
	if _, ok := logLevels[strings.ToLower(c.Render.LogLevel)]; !ok {
		return errors.New("S403").
			WithDetailf("render.logLevel %q is not one of debug, info, warn, error", c.Render.LogLevel)
	}
	if c.Store.S3.Bucket == "" && (c.Store.S3.Prefix != "" || c.Store.S3.Region != "") {
		return errors.New("S403").
			WithDetail("store.s3 needs a bucket when prefix or region is set")
	}
	return nil
}

// RenderPeriod returns the parsed render coalescing window.
func (c *Config) RenderPeriod() time.Duration {
	d, err := time.ParseDuration(c.Render.Period)
	if err != nil || d < 0 {
		return DefaultRenderPeriod
	}
	return d
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	if lvl, ok := logLevels[strings.ToLower(c.Render.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelInfo
}
