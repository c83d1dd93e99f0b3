// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		URL string `mapstructure:"url" yaml:"-"` // Never serialize credentials
	} `mapstructure:"database" yaml:"database"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Rules struct {
		MatchTimeoutMillis int `mapstructure:"match_timeout_millis" yaml:"match_timeout_millis"`
	} `mapstructure:"rules" yaml:"rules"`

	Import struct {
		Delimiter     string `mapstructure:"delimiter" yaml:"delimiter"`
		DateColumn    string `mapstructure:"date_column" yaml:"date_column"`
		LabelColumn   string `mapstructure:"label_column" yaml:"label_column"`
		AmountColumn  string `mapstructure:"amount_column" yaml:"amount_column"`
		AccountColumn string `mapstructure:"account_column" yaml:"account_column"`
	} `mapstructure:"import" yaml:"import"`

	Categories struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"categories" yaml:"categories"`
}

// AITimeout returns the classifier timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// RuleMatchTimeout returns the per-rule match timeout as a duration.
func (c *Config) RuleMatchTimeout() time.Duration {
	return time.Duration(c.Rules.MatchTimeoutMillis) * time.Millisecond
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.fintrack")
	v.AddConfigPath(".fintrack")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("FINTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Secrets always come from unprefixed environment variables
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}
	if err := v.BindEnv("database.url", "DATABASE_URL"); err != nil {
		fmt.Printf("Warning: failed to bind DATABASE_URL environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout_seconds", 10)

	// Rule matching defaults
	v.SetDefault("rules.match_timeout_millis", 50)

	// Import defaults match the Bourso export
	v.SetDefault("import.delimiter", ";")
	v.SetDefault("import.date_column", "dateOp")
	v.SetDefault("import.label_column", "label")
	v.SetDefault("import.amount_column", "amount")
	v.SetDefault("import.account_column", "accountNum")

	// Category catalog defaults
	v.SetDefault("categories.file", "categories.yaml")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate import delimiter
	if len(config.Import.Delimiter) != 1 {
		return fmt.Errorf("import delimiter must be a single character, got: %s", config.Import.Delimiter)
	}

	// Validate AI configuration
	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	// Validate rule matching timeout
	if config.Rules.MatchTimeoutMillis < 1 || config.Rules.MatchTimeoutMillis > 10000 {
		return fmt.Errorf("rules.match_timeout_millis must be between 1 and 10000, got: %d", config.Rules.MatchTimeoutMillis)
	}

	return nil
}
