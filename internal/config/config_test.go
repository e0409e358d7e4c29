package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/bot")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join("/home/bot", "db_dev", "trading_test.db"), cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, time.Hour, cfg.Scheduler.HealthInterval)
	assert.True(t, cfg.Scheduler.RunOnStart)
	assert.Equal(t, "count", cfg.Detector.Mode)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Empty(t, cfg.ClickHouse.DSN)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://file/analytics
scheduler:
  interval: 10m
log:
  level: debug
`), 0o644))

	t.Setenv("TA_DATABASE_DSN", "postgres://env/analytics")
	t.Setenv("TA_DETECTOR_MODE", "fetch")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Duration("interval", 5*time.Minute, "")
	require.NoError(t, flags.Parse([]string{"--log-level=warn"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env/analytics", cfg.Database.DSN)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "fetch", cfg.Detector.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database:  DatabaseConfig{Driver: DriverMemory, MaxConns: 1},
		Scheduler: SchedulerConfig{Interval: time.Minute},
		Detector:  DetectorConfig{Mode: "count"},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"unknown driver":    func(c *Config) { c.Database.Driver = "mysql" },
		"postgres no dsn":   func(c *Config) { c.Database.Driver = DriverPostgres },
		"sqlite no path":    func(c *Config) { c.Database.Driver = DriverSQLite },
		"zero interval":     func(c *Config) { c.Scheduler.Interval = 0 },
		"zero max conns":    func(c *Config) { c.Database.MaxConns = 0 },
		"unknown detection": func(c *Config) { c.Detector.Mode = "scan" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/bot")

	assert.Equal(t, "/home/bot/x.db", expandHome("~/x.db"))
	assert.Equal(t, "/var/x.db", expandHome("/var/x.db"))
	assert.Equal(t, "rel/x.db", expandHome("rel/x.db"))
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TA_LOG_LEVEL=warn\n"), 0o600))
	t.Chdir(dir)
	// Setenv restores the original value; godotenv never overrides a set variable.
	t.Setenv("TA_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("TA_LOG_LEVEL"))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TA_LOG-LEVEL=debug\n"), 0o600))
	t.Chdir(dir)

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load .env")
}
