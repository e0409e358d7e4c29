// Package config loads the service configuration from a YAML file, a .env file,
// TA_-prefixed environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"trading-analytics/internal/engine"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
}

// DatabaseConfig selects the storage backend. DSN is used by postgres, Path by sqlite.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// SchedulerConfig controls the cycle and health-check cadence.
type SchedulerConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
	RunOnStart     bool          `mapstructure:"run_on_start"`
}

// DetectorConfig picks how new closed trades are detected (count or fetch).
type DetectorConfig struct {
	Mode string `mapstructure:"mode"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig sets the listen address of the /metrics, /health and /status server.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ClickHouseConfig enables the analytics export when DSN is set.
type ClickHouseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"driver":       "database.driver",
	"dsn":          "database.dsn",
	"db-path":      "database.path",
	"interval":     "scheduler.interval",
	"detect-mode":  "detector.mode",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-addr": "metrics.addr",
	"clickhouse":   "clickhouse.dsn",
}

// Load reads configuration. path may be empty, in which case only defaults,
// environment and flags apply. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	// A missing .env is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", "~/db_dev/trading_test.db")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.health_interval", "1h")
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("detector.mode", string(engine.DetectCount))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("clickhouse.dsn", "")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Database.Path = expandHome(cfg.Database.Path)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", DriverPostgres)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver %s", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be positive, got %d", c.Database.MaxConns)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.HealthInterval < 0 {
		return fmt.Errorf("scheduler.health_interval must not be negative, got %s", c.Scheduler.HealthInterval)
	}
	if _, err := engine.ParseDetectMode(c.Detector.Mode); err != nil {
		return fmt.Errorf("detector.mode: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
