package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseConfig holds the SQLite store location.
type DatabaseConfig struct {
	Path        string `json:"path"`
	BusyTimeout int    `json:"busyTimeout"` // milliseconds
}

// GetDSN returns the data source name handed to the SQLite driver.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s?cache=shared&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", c.Path, c.BusyTimeout)
}

// GetDefaultDatabaseConfig returns the configuration derived from the environment.
func GetDefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Path:        GetDBPath(),
		BusyTimeout: 5000,
	}
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	if c.Path == "" {
		return fmt.Errorf("SQLite path cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("SQLite busy timeout cannot be negative")
	}
	return nil
}

// EnsureDirectoryExists ensures the directory for the SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	return os.MkdirAll(filepath.Dir(c.Path), 0o755)
}
