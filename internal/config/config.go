// Package config loads pairs-lab settings from YAML, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/strategy"
)

// EnvPrefix prefixes every environment override, e.g. PAIRSLAB_SIGNALS_ENTRY_Z.
const EnvPrefix = "PAIRSLAB"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// ErrInvalidConfig is returned when a loaded configuration is unusable.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Signals       SignalsConfig       `mapstructure:"signals" yaml:"signals"`
	Qualification QualificationConfig `mapstructure:"qualification" yaml:"qualification"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline" yaml:"pipeline"`
	Sweep         SweepConfig         `mapstructure:"sweep" yaml:"sweep"`
	Storage       StorageConfig       `mapstructure:"storage" yaml:"storage"`
	Metrics       MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

type SignalsConfig struct {
	EntryZ         float64 `mapstructure:"entry_z" yaml:"entry_z"`
	ExitZ          float64 `mapstructure:"exit_z" yaml:"exit_z"`
	StopZ          float64 `mapstructure:"stop_z" yaml:"stop_z"`
	SafeZ          float64 `mapstructure:"safe_z" yaml:"safe_z"`
	MaxHoldingDays int     `mapstructure:"max_holding_days" yaml:"max_holding_days"`
	RollingWindow  int     `mapstructure:"rolling_window" yaml:"rolling_window"`
}

type QualificationConfig struct {
	MinTotalReturnPct  float64 `mapstructure:"min_total_return_pct" yaml:"min_total_return_pct"`
	MinMedianReturnPct float64 `mapstructure:"min_median_return_pct" yaml:"min_median_return_pct"`
	MinWinRatePct      float64 `mapstructure:"min_win_rate_pct" yaml:"min_win_rate_pct"`
	MaxAvgHoldingDays  float64 `mapstructure:"max_avg_holding_days" yaml:"max_avg_holding_days"`
	MinTradeCount      int     `mapstructure:"min_trade_count" yaml:"min_trade_count"`
}

type PipelineConfig struct {
	Workers      int `mapstructure:"workers" yaml:"workers"` // 0 uses GOMAXPROCS
	Year         int `mapstructure:"year" yaml:"year"`       // 0 keeps the full history
	SnapshotRows int `mapstructure:"snapshot_rows" yaml:"snapshot_rows"`
}

type SweepConfig struct {
	EntryValues []float64 `mapstructure:"entry_values" yaml:"entry_values"`
	ExitValues  []float64 `mapstructure:"exit_values" yaml:"exit_values"`
}

type StorageConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"`
	PostgresDSN   string        `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	ClickhouseDSN string        `mapstructure:"clickhouse_dsn" yaml:"clickhouse_dsn"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	SnapshotTTL   time.Duration `mapstructure:"snapshot_ttl" yaml:"snapshot_ttl"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // empty disables the HTTP endpoint
}

// Load reads configuration from configPath, or from pairslab.yaml in the
// working directory or ./config when configPath is empty. A missing default
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pairslab")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	th := domain.DefaultThresholds()
	qc := domain.DefaultQualificationCriteria()

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Signal defaults
	v.SetDefault("signals.entry_z", th.EntryZ)
	v.SetDefault("signals.exit_z", th.ExitZ)
	v.SetDefault("signals.stop_z", th.StopZ)
	v.SetDefault("signals.safe_z", th.SafeZ)
	v.SetDefault("signals.max_holding_days", th.MaxHoldingDays)
	v.SetDefault("signals.rolling_window", th.RollingWindow)

	// Qualification defaults
	v.SetDefault("qualification.min_total_return_pct", qc.MinTotalReturnPct)
	v.SetDefault("qualification.min_median_return_pct", qc.MinMedianReturnPct)
	v.SetDefault("qualification.min_win_rate_pct", qc.MinWinRatePct)
	v.SetDefault("qualification.max_avg_holding_days", qc.MaxAvgHoldingDays)
	v.SetDefault("qualification.min_trade_count", qc.MinTradeCount)

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.year", 0)
	v.SetDefault("pipeline.snapshot_rows", 50)

	// Sweep defaults
	v.SetDefault("sweep.entry_values", []float64{1.5, 2.0, 2.5})
	v.SetDefault("sweep.exit_values", []float64{0.1, 0.3, 0.5})

	// Storage defaults
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.snapshot_ttl", 24*time.Hour)

	// Metrics defaults
	v.SetDefault("metrics.addr", "")
}

// Default returns the configuration Load produces with no file and no environment.
func Default() *Config {
	th := domain.DefaultThresholds()
	qc := domain.DefaultQualificationCriteria()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Signals: SignalsConfig{
			EntryZ:         th.EntryZ,
			ExitZ:          th.ExitZ,
			StopZ:          th.StopZ,
			SafeZ:          th.SafeZ,
			MaxHoldingDays: th.MaxHoldingDays,
			RollingWindow:  th.RollingWindow,
		},
		Qualification: QualificationConfig{
			MinTotalReturnPct:  qc.MinTotalReturnPct,
			MinMedianReturnPct: qc.MinMedianReturnPct,
			MinWinRatePct:      qc.MinWinRatePct,
			MaxAvgHoldingDays:  qc.MaxAvgHoldingDays,
			MinTradeCount:      qc.MinTradeCount,
		},
		Pipeline: PipelineConfig{SnapshotRows: 50},
		Sweep: SweepConfig{
			EntryValues: []float64{1.5, 2.0, 2.5},
			ExitValues:  []float64{0.1, 0.3, 0.5},
		},
		Storage: StorageConfig{Backend: BackendMemory, SnapshotTTL: 24 * time.Hour},
	}
}

// Thresholds returns the signal thresholds.
func (c *Config) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		EntryZ:         c.Signals.EntryZ,
		ExitZ:          c.Signals.ExitZ,
		StopZ:          c.Signals.StopZ,
		SafeZ:          c.Signals.SafeZ,
		MaxHoldingDays: c.Signals.MaxHoldingDays,
		RollingWindow:  c.Signals.RollingWindow,
	}
}

// Criteria returns the pair qualification criteria.
func (c *Config) Criteria() domain.QualificationCriteria {
	return domain.QualificationCriteria(c.Qualification)
}

// Validate checks thresholds and storage settings.
func (c *Config) Validate() error {
	if err := strategy.Validate(c.Thresholds()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: storage.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Pipeline.Workers < 0 || c.Pipeline.SnapshotRows < 0 {
		return fmt.Errorf("%w: pipeline workers and snapshot_rows must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
