// Package config loads jobtrail settings from an optional YAML file and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root configuration. Empty paths are filled in relative to
// Home by Load.
type Config struct {
	Home     string         `yaml:"home" env:"JOBTRAIL_HOME"`
	Store    StoreConfig    `yaml:"store"`
	Gmail    GmailConfig    `yaml:"gmail"`
	Log      LogConfig      `yaml:"log"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver          string        `yaml:"driver"             env:"STORE_DRIVER"                env-default:"sqlite"`
	SQLitePath      string        `yaml:"sqlite_path"        env:"SQLITE_PATH"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"5m"`
}

// GmailConfig bounds each fetch.
type GmailConfig struct {
	LookbackDays     int    `yaml:"lookback_days"      env:"GMAIL_LOOKBACK_DAYS" env-default:"30"`
	MaxResults       int64  `yaml:"max_results"        env:"GMAIL_MAX_RESULTS"   env-default:"50"`
	Workers          int    `yaml:"workers"            env:"GMAIL_WORKERS"       env-default:"8"`
	ClientSecretJSON string `yaml:"client_secret_json" env:"CLIENT_SECRET_JSON"`
}

// Lookback is LookbackDays as a duration.
func (g GmailConfig) Lookback() time.Duration {
	return time.Duration(g.LookbackDays) * 24 * time.Hour
}

// LogConfig holds logging settings. The log goes to a file because the TUI
// owns the terminal.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	File  string `yaml:"file"  env:"LOG_FILE"`
}

// TaxonomyConfig points at an optional phrase-list override.
type TaxonomyConfig struct {
	Path string `yaml:"path" env:"TAXONOMY_PATH"`
}

// MetricsConfig enables the Prometheus endpoint in watch mode. Empty Addr
// means off.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

// resolvePaths fills Home, SQLitePath and Log.File when they were left empty.
func (c *Config) resolvePaths() error {
	if c.Home == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return err
		}
		c.Home = filepath.Join(dir, "jobtrail")
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = filepath.Join(c.Home, "jobtrail.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.Home, "jobtrail.log")
	}
	return nil
}
