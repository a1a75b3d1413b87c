// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/spend-ledger/internal/models"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Storage struct {
		Driver string `mapstructure:"driver" yaml:"driver"`
		Path   string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"storage" yaml:"storage"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	FX struct {
		Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
		BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
		TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		CachePath      string  `mapstructure:"cache_path" yaml:"cache_path"`
		FallbackRate   float64 `mapstructure:"fallback_rate" yaml:"fallback_rate"`
	} `mapstructure:"fx" yaml:"fx"`

	Ledger struct {
		DisplayCurrency string `mapstructure:"display_currency" yaml:"display_currency"`
		SeedFile        string `mapstructure:"seed_file" yaml:"seed_file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Summary struct {
		DefaultMonths int `mapstructure:"default_months" yaml:"default_months"`
		MaxMonths     int `mapstructure:"max_months" yaml:"max_months"`
	} `mapstructure:"summary" yaml:"summary"`

	Server struct {
		Addr                  string `mapstructure:"addr" yaml:"addr"`
		RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	} `mapstructure:"server" yaml:"server"`

	Export struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"export" yaml:"export"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from configFile, or from the standard locations when it is
// empty: $HOME/.spend-ledger, .spend-ledger and the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.spend-ledger")
		v.AddConfigPath(".spend-ledger")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Handle special case for API key (always from env, not prefixed)
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDerivedDefaults(&config)

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("storage.path", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 10)

	v.SetDefault("fx.enabled", true)
	v.SetDefault("fx.base_url", "https://api.frankfurter.app")
	v.SetDefault("fx.timeout_seconds", 5)
	v.SetDefault("fx.cache_path", "")
	v.SetDefault("fx.fallback_rate", 5.2)

	v.SetDefault("ledger.display_currency", models.CurrencyCAD)
	v.SetDefault("ledger.seed_file", "")

	v.SetDefault("summary.default_months", 6)
	v.SetDefault("summary.max_months", 24)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout_seconds", 30)

	v.SetDefault("export.delimiter", ",")
}

// DataDir is where the ledger keeps its files when no explicit path is configured.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spend-ledger"
	}
	return filepath.Join(home, ".spend-ledger")
}

func applyDerivedDefaults(config *Config) {
	if config.Storage.Path == "" {
		config.Storage.Path = filepath.Join(DataDir(), "ledger.db")
	}
	if config.FX.CachePath == "" {
		config.FX.CachePath = filepath.Join(DataDir(), "fxrates.db")
	}
	config.Ledger.DisplayCurrency = models.NormalizeCurrency(config.Ledger.DisplayCurrency)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Storage.Driver != StorageSQLite && config.Storage.Driver != StorageMemory {
		return fmt.Errorf("invalid storage driver: %s (must be '%s' or '%s')", config.Storage.Driver, StorageSQLite, StorageMemory)
	}

	if config.AI.Enabled && config.AI.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
	}
	if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
		return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
	}

	if config.FX.TimeoutSeconds < 1 || config.FX.TimeoutSeconds > 300 {
		return fmt.Errorf("fx.timeout_seconds must be between 1 and 300, got: %d", config.FX.TimeoutSeconds)
	}
	if config.FX.FallbackRate <= 0 {
		return fmt.Errorf("fx.fallback_rate must be positive, got: %f", config.FX.FallbackRate)
	}

	if !models.IsSupportedCurrency(config.Ledger.DisplayCurrency) {
		return fmt.Errorf("ledger.display_currency must be %s or %s, got: %s", models.CurrencyCAD, models.CurrencyCNY, config.Ledger.DisplayCurrency)
	}

	if config.Summary.MaxMonths < 1 || config.Summary.MaxMonths > 120 {
		return fmt.Errorf("summary.max_months must be between 1 and 120, got: %d", config.Summary.MaxMonths)
	}
	if config.Summary.DefaultMonths < 1 || config.Summary.DefaultMonths > config.Summary.MaxMonths {
		return fmt.Errorf("summary.default_months must be between 1 and %d, got: %d", config.Summary.MaxMonths, config.Summary.DefaultMonths)
	}

	if config.Server.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("server.request_timeout_seconds must be positive, got: %d", config.Server.RequestTimeoutSeconds)
	}

	if len([]rune(config.Export.Delimiter)) != 1 {
		return fmt.Errorf("export delimiter must be a single character, got: %s", config.Export.Delimiter)
	}

	return nil
}

// ExportDelimiter returns the configured CSV delimiter as a rune.
func (c *Config) ExportDelimiter() rune {
	r := []rune(c.Export.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}
