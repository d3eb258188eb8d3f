package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/finsim")
	}

	setDefaults(v)

	// FINSIM_SIMULATION_MAX_SAMPLES overrides simulation.max_samples
	v.SetEnvPrefix("FINSIM")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)

	v.SetDefault("simulation.default_samples", d.Simulation.DefaultSamples)
	v.SetDefault("simulation.default_horizon", d.Simulation.DefaultHorizon)
	v.SetDefault("simulation.max_samples", d.Simulation.MaxSamples)
	v.SetDefault("simulation.max_horizon", d.Simulation.MaxHorizon)
	v.SetDefault("simulation.workers", d.Simulation.Workers)
	v.SetDefault("simulation.batch_size", d.Simulation.BatchSize)
	v.SetDefault("simulation.default_seed", d.Simulation.DefaultSeed)
	v.SetDefault("simulation.timeout", "30s")

	v.SetDefault("risk.window_size", d.Risk.WindowSize)
	v.SetDefault("risk.factors", d.Risk.Factors)
	v.SetDefault("risk.assets_factor", d.Risk.AssetsFactor)
	v.SetDefault("risk.liabilities_factor", d.Risk.LiabilitiesFactor)
	v.SetDefault("risk.growth_factor", d.Risk.GrowthFactor)
	v.SetDefault("risk.trend_periods", d.Risk.TrendPeriods)

	v.SetDefault("auth.enabled", false)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 5555,
		},
		Storage: StorageConfig{
			Driver:  "sqlite3",
			DSN:     "finsim.db",
			DataDir: "./data",
		},
		Simulation: SimulationConfig{
			DefaultSamples: 5000,
			DefaultHorizon: 5,
			MaxSamples:     100000,
			MaxHorizon:     500,
			Workers:        0,
			BatchSize:      1000,
			DefaultSeed:    0,
			Timeout:        30 * time.Second,
		},
		Risk: RiskConfig{
			WindowSize:        5,
			Factors:           []string{"revenue", "net_income", "total_assets", "total_liabilities"},
			AssetsFactor:      "total_assets",
			LiabilitiesFactor: "total_liabilities",
			GrowthFactor:      "revenue",
			TrendPeriods:      5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
	}
}
