// Package config holds the immutable configuration record consumed by
// the registry/facade layer. Loading it from a file or environment is
// out of scope; this package only defines the shape and sane defaults,
// tagged for yaml.v3 the way the other facade configs in this codebase are.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Source names the fixed set of providers this module supports.
type Source string

const (
	SourceYahoo   Source = "yahoo"
	SourceBinance Source = "binance"
	SourceTiingo  Source = "tiingo"
)

// Align selects how multi-symbol series are combined by internal/align.
type Align string

const (
	AlignUnion     Align = "union"
	AlignIntersect Align = "intersect"
)

// Config is the immutable extraction configuration. Zero value is not
// meaningful; use Default() and override fields as needed.
type Config struct {
	Source   Source        `yaml:"source"`
	Timeout  time.Duration `yaml:"timeout"`
	Interval string        `yaml:"interval"`
	FFill    bool          `yaml:"ffill"`
	BFill    bool          `yaml:"bfill"`
	Align    Align         `yaml:"align"`
	APIKey   string        `yaml:"api_key,omitempty"`

	MaxWorkers    int           `yaml:"max_workers"`
	RatePerSec    float64       `yaml:"rate_per_sec"`
	RateBurst     int           `yaml:"rate_burst"`
	BreakerWindow time.Duration `yaml:"breaker_window"`
}

// Default mirrors the defaults of the original ExtractorConfig: a
// 30-second timeout, daily interval, forward-fill on, back-fill off,
// and intersect alignment so multi-symbol requests only keep dates
// common to every symbol unless the caller opts into union explicitly.
func Default() Config {
	return Config{
		Source:        SourceYahoo,
		Timeout:       30 * time.Second,
		Interval:      "1d",
		FFill:         true,
		BFill:         false,
		Align:         AlignIntersect,
		MaxWorkers:    8,
		RatePerSec:    5,
		RateBurst:     10,
		BreakerWindow: 60 * time.Second,
	}
}

// LoadFromYAML overlays YAML-encoded fields onto Default(), for tests
// and for callers that keep their own config files; this module does
// not define where that file lives or how it's discovered.
func LoadFromYAML(data []byte) (Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
