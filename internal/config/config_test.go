package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 50, cfg.Analysis.Bandwidth)
	assert.Equal(t, 250, cfg.Analysis.Window)
	assert.Equal(t, 100, cfg.Analysis.TauLookback)
	assert.Equal(t, 500, cfg.Analysis.LPPLLookback)
	assert.Equal(t, 100, cfg.Analysis.LPPLMinPoints)
	assert.InDelta(t, 0.7, cfg.Analysis.LPPLMinR2, 1e-12)
	assert.Equal(t, "SP500", cfg.Series.Price)
	assert.Equal(t, "WALCL", cfg.Series.BalanceSheet)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "public", cfg.Output.Dir)
	assert.Equal(t, "flr-data.json", cfg.Output.JSON)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Server.Interval)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "flr.yaml", `
analysis:
  window: 120
  workers: 2
series:
  aux:
    ssn: SSN
output:
  dir: out
server:
  interval: 15m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Analysis.Window)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, 50, cfg.Analysis.Bandwidth, "unset fields keep defaults")
	assert.Equal(t, "SSN", cfg.Series.Aux["ssn"])
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 15*time.Minute, cfg.Server.Interval)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Analysis.Window)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "analysis: [1, 2")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ZeroMinR2Rejected(t *testing.T) {
	path := writeFile(t, "flr.yaml", "analysis:\n  lppl_min_r2: 0\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvOutputDir, "/tmp/flr")
	t.Setenv(EnvBackend, "database")
	t.Setenv(EnvPostgresDSN, "postgres://localhost/flr")
	t.Setenv(EnvClickhouseDSN, "clickhouse://localhost:9000/flr")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/flr", cfg.Output.Dir)
	assert.Equal(t, BackendDatabase, cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/flr", cfg.Storage.PostgresDSN)
	assert.Equal(t, "clickhouse://localhost:9000/flr", cfg.Storage.ClickhouseDSN)
}

func TestLoadWithEnv_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "FLR_OUTPUT_DIR=from-dotenv\n")
	t.Setenv(EnvOutputDir, "")
	require.NoError(t, os.Unsetenv(EnvOutputDir))

	cfg, err := LoadWithEnv("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
}

func TestLoadWithEnv_MissingDotEnvIgnored(t *testing.T) {
	_, err := LoadWithEnv("", filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero bandwidth", func(c *Config) { c.Analysis.Bandwidth = 0 }},
		{"window below two", func(c *Config) { c.Analysis.Window = 1 }},
		{"min r2 at one", func(c *Config) { c.Analysis.LPPLMinR2 = 1 }},
		{"min r2 zero", func(c *Config) { c.Analysis.LPPLMinR2 = 0 }},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -1 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"database without dsn", func(c *Config) { c.Storage.Backend = BackendDatabase }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty price series", func(c *Config) { c.Series.Price = "" }},
		{"zero interval", func(c *Config) { c.Server.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestEngine(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Analysis.Workers = 3

	ec := cfg.Engine()
	assert.Equal(t, 50, ec.CSD.Bandwidth)
	assert.Equal(t, 250, ec.CSD.Window)
	assert.Equal(t, 3, ec.CSD.Workers)
	assert.Equal(t, 500, ec.LPPL.Lookback)
	assert.Equal(t, 3, ec.LPPL.Workers)
	assert.Equal(t, 1680, ec.LPPL.Grid.Size())
}

func TestSeriesIDs(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Series.Aux = map[string]string{"ssn": "SSN", "dup": "SP500"}
	cfg.Series.FundingSpread = ""

	ids := cfg.SeriesIDs()
	assert.Equal(t, []string{"BAMLC0A0CM", "BAMLH0A0HYM2", "RRPONTSYD", "SP500", "SSN", "WALCL", "WRESBAL", "WTREGEN"}, ids)
}
