package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Validate checks cross-field rules. Load calls it.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn (DATABASE_DSN) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be sqlite, postgres or memory (got %q)", c.Store.Driver)
	}

	if c.Gmail.LookbackDays <= 0 {
		return fmt.Errorf("gmail.lookback_days must be > 0 (got %d)", c.Gmail.LookbackDays)
	}
	if c.Gmail.MaxResults <= 0 {
		return fmt.Errorf("gmail.max_results must be > 0 (got %d)", c.Gmail.MaxResults)
	}
	if c.Gmail.Workers <= 0 {
		return fmt.Errorf("gmail.workers must be > 0 (got %d)", c.Gmail.Workers)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
