package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pycycles/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pycycles.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, []string{"."}, cfg.Roots)
	assert.Equal(t, "dfs", cfg.Strategy)
	assert.Equal(t, 0, cfg.Threshold)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Contains(t, cfg.Exclude.Dirs, "__pycache__")
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
roots = ["src", "plugins"]
strategy = "johnson"
threshold = 3
strict = true
workers = 8

[exclude]
dirs = ["vendor"]

[output]
dot = "cycles.dot"
sarif = "cycles.sarif"

[watch]
enabled = true
debounce = "250ms"
rate_limit = 2.0

[history]
path = "runs.db"

[telemetry]
metrics_addr = ":9102"
otlp_endpoint = "localhost:4317"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "plugins"}, cfg.Roots)
	assert.Equal(t, "johnson", cfg.Strategy)
	assert.Equal(t, 3, cfg.Threshold)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"vendor"}, cfg.Exclude.Dirs)
	assert.Equal(t, "cycles.dot", cfg.Output.DOT)
	assert.Equal(t, "cycles.sarif", cfg.Output.SARIF)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 2.0, cfg.Watch.RateLimit)
	assert.Equal(t, "runs.db", cfg.History.Path)
	assert.Equal(t, ":9102", cfg.Telemetry.MetricsAddr)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "roots = [unterminated"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no roots", func(c *Config) { c.Roots = nil }},
		{"negative threshold", func(c *Config) { c.Threshold = -1 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
		{"zero rate limit", func(c *Config) { c.Watch.RateLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
		})
	}
}
