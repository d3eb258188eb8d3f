package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	if c.Storage.IsMemory() {
		return nil
	}
	return os.MkdirAll(c.Storage.DataDir, 0755)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// IsMemory reports whether the DSN points at an in-memory database
func (c *StorageConfig) IsMemory() bool {
	return strings.Contains(c.DSN, ":memory:") || strings.Contains(c.DSN, "mode=memory")
}

// ResolveDSN joins a relative file DSN onto DataDir
func (c *StorageConfig) ResolveDSN() string {
	if c.IsMemory() || strings.HasPrefix(c.DSN, "file:") || filepath.IsAbs(c.DSN) || c.DataDir == "" {
		return c.DSN
	}
	return filepath.Join(c.DataDir, c.DSN)
}

// HasFactor reports whether name is one of the configured risk factors
func (c *RiskConfig) HasFactor(name string) bool {
	for _, f := range c.Factors {
		if f == name {
			return true
		}
	}
	return false
}
