// Package config loads the tracker configuration from YAML, .env and the
// environment. Defaults come from struct tags; the result is validated
// before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flr-tracker/internal/csd"
	"flr-tracker/internal/engine"
	"flr-tracker/internal/lppl"
)

// Environment overrides.
const (
	EnvPostgresDSN   = "FLR_POSTGRES_DSN"
	EnvClickhouseDSN = "FLR_CLICKHOUSE_DSN"
	EnvLogLevel      = "FLR_LOG_LEVEL"
	EnvOutputDir     = "FLR_OUTPUT_DIR"
	EnvBackend       = "FLR_STORAGE_BACKEND"
	EnvServerAddr    = "FLR_SERVER_ADDR"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Series   SeriesConfig   `yaml:"series"`
	Storage  StorageConfig  `yaml:"storage"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// AnalysisConfig holds the CSD and LPPL parameters.
type AnalysisConfig struct {
	Bandwidth     int     `yaml:"bandwidth" default:"50" validate:"gt=0"`
	Window        int     `yaml:"window" default:"250" validate:"gte=2"`
	TauLookback   int     `yaml:"tau_lookback" default:"100" validate:"gte=2"`
	LPPLLookback  int     `yaml:"lppl_lookback" default:"500" validate:"gt=0"`
	LPPLMinPoints int     `yaml:"lppl_min_points" default:"100" validate:"gt=0"`
	LPPLMinR2     float64 `yaml:"lppl_min_r2" default:"0.7" validate:"gt=0,lt=1"`
	Workers       int     `yaml:"workers" validate:"gte=0"` // 0 means GOMAXPROCS
}

// SeriesConfig names the source series and where their CSV exports live.
type SeriesConfig struct {
	Price            string            `yaml:"price" default:"SP500" validate:"required"`
	BalanceSheet     string            `yaml:"balance_sheet" default:"WALCL" validate:"required"`
	TGA              string            `yaml:"tga" default:"WTREGEN" validate:"required"`
	RRP              string            `yaml:"rrp" default:"RRPONTSYD" validate:"required"`
	Reserves         string            `yaml:"reserves" default:"WRESBAL"`
	HighYieldSpread  string            `yaml:"high_yield_spread" default:"BAMLH0A0HYM2"`
	InvestmentSpread string            `yaml:"investment_spread" default:"BAMLC0A0CM"`
	FundingSpread    string            `yaml:"funding_spread"`
	Aux              map[string]string `yaml:"aux"` // column name -> series id
	CSVDir           string            `yaml:"csv_dir" default:"data"`
	Files            map[string]string `yaml:"files"` // series id -> file name override
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `yaml:"backend" default:"memory" validate:"oneof=memory database"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Backend database"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" validate:"required_if=Backend database"`
	MaxConns      int32  `yaml:"max_conns" default:"10" validate:"gt=0"`
}

// OutputConfig controls generated artifacts.
type OutputConfig struct {
	Dir      string `yaml:"dir" default:"public" validate:"required"`
	JSON     string `yaml:"json" default:"flr-data.json" validate:"required"`
	Markdown string `yaml:"markdown" default:"FLR_REPORT.md" validate:"required"`
	CSV      string `yaml:"csv" default:"timeseries.csv" validate:"required"`
	Version  string `yaml:"version" default:"3.0.0"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stderr" validate:"required"`
}

// ServerConfig configures flr serve.
type ServerConfig struct {
	Addr            string        `yaml:"addr" default:":8080" validate:"required"`
	Interval        time.Duration `yaml:"interval" default:"1h" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML config file. An empty path yields the defaults.
// Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads a .env file (missing files are ignored) into the process
// environment and then calls Load.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	return Load(path)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPostgresDSN); ok && v != "" {
		c.Storage.PostgresDSN = v
	}
	if v, ok := lookup(EnvClickhouseDSN); ok && v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup(EnvServerAddr); ok && v != "" {
		c.Server.Addr = v
	}
}

// Validate checks the configuration against its validate tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, e := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Engine converts the analysis section to engine parameters.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		CSD: csd.Params{
			Bandwidth:   c.Analysis.Bandwidth,
			Window:      c.Analysis.Window,
			TauLookback: c.Analysis.TauLookback,
			Workers:     c.Analysis.Workers,
		},
		LPPL: lppl.Options{
			Lookback:  c.Analysis.LPPLLookback,
			MinPoints: c.Analysis.LPPLMinPoints,
			MinR2:     c.Analysis.LPPLMinR2,
			Grid:      lppl.DefaultGrid(),
			Workers:   c.Analysis.Workers,
		},
	}
}

// SeriesIDs returns every configured source series id, sorted and deduplicated.
func (c *Config) SeriesIDs() []string {
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" {
			seen[id] = true
		}
	}
	s := c.Series
	add(s.Price)
	add(s.BalanceSheet)
	add(s.TGA)
	add(s.RRP)
	add(s.Reserves)
	add(s.HighYieldSpread)
	add(s.InvestmentSpread)
	add(s.FundingSpread)
	for _, id := range s.Aux {
		add(id)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
