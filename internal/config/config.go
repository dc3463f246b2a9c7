package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"pycycles/internal/errors"
)

type Config struct {
	Roots     []string  `toml:"roots"`
	Strategy  string    `toml:"strategy"`
	Threshold int       `toml:"threshold"`
	Strict    bool      `toml:"strict"`
	Verbose   bool      `toml:"verbose"`
	Workers   int       `toml:"workers"`
	Exclude   Exclude   `toml:"exclude"`
	Output    Output    `toml:"output"`
	Watch     Watch     `toml:"watch"`
	History   History   `toml:"history"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Exclude struct {
	Dirs []string `toml:"dirs"`
}

type Output struct {
	DOT   string `toml:"dot"`
	SARIF string `toml:"sarif"`
	TSV   string `toml:"tsv"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// RateLimit caps analysis runs per second while watching.
	RateLimit float64 `toml:"rate_limit"`
}

type History struct {
	Path string `toml:"path"`
}

type Telemetry struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Default() *Config {
	return &Config{
		Roots:    []string{"."},
		Strategy: "dfs",
		Workers:  4,
		Exclude: Exclude{
			Dirs: []string{"__pycache__", ".*"},
		},
		Watch: Watch{
			Debounce:  500 * time.Millisecond,
			RateLimit: 1,
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults. A missing
// or malformed file is a configuration error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "cannot read config file"), errors.CtxPath, path)
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "cannot parse config file"), errors.CtxPath, path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New(errors.CodeConfiguration, "at least one package root is required")
	}
	if c.Threshold < 0 {
		return errors.New(errors.CodeConfiguration, "threshold must not be negative")
	}
	if c.Workers < 1 {
		return errors.New(errors.CodeConfiguration, "workers must be at least 1")
	}
	if c.Watch.Debounce < 0 {
		return errors.New(errors.CodeConfiguration, "watch debounce must not be negative")
	}
	if c.Watch.RateLimit <= 0 {
		return errors.New(errors.CodeConfiguration, "watch rate limit must be positive")
	}
	return nil
}
