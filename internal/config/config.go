// Package config holds the lexigraph configuration, loaded by viper from an
// optional YAML file and LEXIGRAPH_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Target  string                  `mapstructure:"target"`
	Targets map[string]TargetConfig `mapstructure:"targets"`
	Store   StoreConfig             `mapstructure:"store"`
	Fetch   FetchConfig             `mapstructure:"fetch"`
	Explore ExploreConfig           `mapstructure:"explore"`
	Meaning MeaningConfig           `mapstructure:"meaning"`
	Logger  LoggerConfig            `mapstructure:"logger"`
	Metrics MetricsConfig           `mapstructure:"metrics"`
}

// TargetConfig describes one lexical source: where words are looked up and
// which data file keeps the collected graph.
type TargetConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Datafile string `mapstructure:"datafile"`
}

// StoreConfig selects the graph store backend.
type StoreConfig struct {
	// Driver is "json" or "sqlite".
	Driver string `mapstructure:"driver"`
	// Path overrides the datafile of the selected target.
	Path string `mapstructure:"path"`
}

// FetchConfig holds settings for HTTP lookups.
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
}

// ExploreConfig holds settings for the crawl loop.
type ExploreConfig struct {
	ForcePrompt bool `mapstructure:"force_prompt"`
	EagerExpand bool `mapstructure:"eager_expand"`
	// RecordSteps logs every exploration step to a sqlite database when set.
	RecordSteps string `mapstructure:"record_steps"`
}

// MeaningConfig holds settings for meaning analysis.
type MeaningConfig struct {
	Thresholds []float64 `mapstructure:"thresholds"`
	SampleSize int       `mapstructure:"sample_size"`
	ExportDir  string    `mapstructure:"export_dir"`
	Workers    int       `mapstructure:"workers"`
	// MetricsFile receives the analysis metrics in the Prometheus text
	// format when set.
	MetricsFile string `mapstructure:"metrics_file"`
}

// ColorConfig defines console colors per log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug"`
	Info  string `mapstructure:"info"`
	Warn  string `mapstructure:"warn"`
	Error string `mapstructure:"error"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level"`
	Format      string      `mapstructure:"format"`
	AddSource   bool        `mapstructure:"add_source"`
	ServiceName string      `mapstructure:"service_name"`
	Colors      ColorConfig `mapstructure:"colors"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers default values so the tool runs without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("target", "synonyme")
	v.SetDefault("targets.synonyme.base_url", "http://www.synonymo.fr/synonyme/")
	v.SetDefault("targets.synonyme.datafile", "data/synonymes.json")
	v.SetDefault("targets.antonyme.base_url", "http://www.antonyme.org/antonyme/")
	v.SetDefault("targets.antonyme.datafile", "data/antonymes.json")

	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user_agent", "lexigraph/"+Version)
	v.SetDefault("fetch.rate_per_second", 2.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.max_body_bytes", 10*1024*1024)

	v.SetDefault("explore.force_prompt", false)
	v.SetDefault("explore.eager_expand", false)
	v.SetDefault("explore.record_steps", "")

	v.SetDefault("meaning.thresholds", []float64{0.5, 0.45, 0.4, 0.3})
	v.SetDefault("meaning.sample_size", 5)
	v.SetDefault("meaning.export_dir", "")
	v.SetDefault("meaning.workers", 4)
	v.SetDefault("meaning.metrics_file", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "lexigraph")
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	v.SetDefault("metrics.addr", "")
}

// Version is the lexigraph release.
const Version = "0.2.0"

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the tool cannot work with.
func (c *Config) Validate() error {
	if _, ok := c.Targets[c.Target]; !ok {
		names := make([]string, 0, len(c.Targets))
		for name := range c.Targets {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown target %q (choose from %v)", c.Target, names)
	}
	switch c.Store.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.driver must be json or sqlite, got %q", c.Store.Driver)
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second must not be negative")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive")
	}
	for _, th := range c.Meaning.Thresholds {
		if th <= 0 || th > 1 {
			return fmt.Errorf("meaning threshold %v outside (0, 1]", th)
		}
	}
	if c.Meaning.SampleSize < 0 {
		return fmt.Errorf("meaning.sample_size must not be negative")
	}
	return nil
}

// Selected returns the configuration of the active target.
func (c *Config) Selected() TargetConfig {
	return c.Targets[c.Target]
}

// StorePath returns the file backing the graph store. Without an explicit
// path the sqlite driver uses the target datafile with a .db extension.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	path := c.Selected().Datafile
	if c.Store.Driver == "sqlite" {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	return path
}
