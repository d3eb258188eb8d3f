package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// StorageConfig represents the historical data store
type StorageConfig struct {
	Driver  string `mapstructure:"driver"`   // only sqlite3 is supported
	DSN     string `mapstructure:"dsn"`      // e.g. finsim.db, file::memory:
	DataDir string `mapstructure:"data_dir"` // base directory for relative DSNs
}

// SimulationConfig bounds and defaults for projection runs
type SimulationConfig struct {
	DefaultSamples int           `mapstructure:"default_samples"`
	DefaultHorizon int           `mapstructure:"default_horizon"`
	MaxSamples     int           `mapstructure:"max_samples"`
	MaxHorizon     int           `mapstructure:"max_horizon"`
	Workers        int           `mapstructure:"workers"`      // 0 = runtime.NumCPU()
	BatchSize      int           `mapstructure:"batch_size"`   // paths per worker batch
	DefaultSeed    uint64        `mapstructure:"default_seed"` // 0 = fresh seed per run
	Timeout        time.Duration `mapstructure:"timeout"`
}

// RiskConfig selects the factors of a risk window and their roles
type RiskConfig struct {
	WindowSize        int      `mapstructure:"window_size"`
	Factors           []string `mapstructure:"factors"`
	AssetsFactor      string   `mapstructure:"assets_factor"`
	LiabilitiesFactor string   `mapstructure:"liabilities_factor"`
	GrowthFactor      string   `mapstructure:"growth_factor"`
	TrendPeriods      int      `mapstructure:"trend_periods"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation config: %w", err)
	}

	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	if c.Driver != "sqlite3" {
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	return nil
}

// Validate validates simulation configuration
func (c *SimulationConfig) Validate() error {
	if c.MaxSamples < 1 {
		return fmt.Errorf("max_samples must be positive")
	}
	if c.MaxHorizon < 1 {
		return fmt.Errorf("max_horizon must be positive")
	}
	if c.DefaultSamples < 1 || c.DefaultSamples > c.MaxSamples {
		return fmt.Errorf("default_samples must be in [1, %d]", c.MaxSamples)
	}
	if c.DefaultHorizon < 1 || c.DefaultHorizon > c.MaxHorizon {
		return fmt.Errorf("default_horizon must be in [1, %d]", c.MaxHorizon)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Validate validates risk configuration
func (c *RiskConfig) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("window_size must be positive")
	}
	if len(c.Factors) == 0 {
		return fmt.Errorf("at least one factor is required")
	}
	for _, role := range []string{c.AssetsFactor, c.LiabilitiesFactor, c.GrowthFactor} {
		if role != "" && !c.HasFactor(role) {
			return fmt.Errorf("role factor %q is not listed in factors", role)
		}
	}
	if c.TrendPeriods < 2 {
		return fmt.Errorf("trend_periods must be at least 2")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
