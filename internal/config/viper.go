package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Provider       string `mapstructure:"provider" yaml:"provider"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Chat struct {
		ContextWindowSize int    `mapstructure:"context_window_size" yaml:"context_window_size"`
		UserName          string `mapstructure:"user_name" yaml:"user_name"`
		BaseCurrency      string `mapstructure:"base_currency" yaml:"base_currency"`
	} `mapstructure:"chat" yaml:"chat"`

	Import struct {
		DeliveryMode     bool   `mapstructure:"delivery_mode" yaml:"delivery_mode"`
		DefaultPortfolio string `mapstructure:"default_portfolio" yaml:"default_portfolio"`
		CSVDelimiter     string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	} `mapstructure:"import" yaml:"import"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then PORTFOLIO_* environment
// variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.portfolio-now")
	v.AddConfigPath(".portfolio-now")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars even if the file is broken.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The API key always comes from the unprefixed provider variable.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("chat.context_window_size", 20)
	v.SetDefault("chat.user_name", "")
	v.SetDefault("chat.base_currency", "EUR")

	v.SetDefault("import.delivery_mode", false)
	v.SetDefault("import.default_portfolio", "")
	v.SetDefault("import.csv_delimiter", ",")

	v.SetDefault("data.directory", "")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if config.Chat.ContextWindowSize < 1 || config.Chat.ContextWindowSize > 500 {
		return fmt.Errorf("chat.context_window_size must be between 1 and 500, got: %d", config.Chat.ContextWindowSize)
	}

	if len(config.Chat.BaseCurrency) != 3 {
		return fmt.Errorf("chat.base_currency must be a 3-letter ISO code, got: %s", config.Chat.BaseCurrency)
	}

	if len(config.Import.CSVDelimiter) != 1 {
		return fmt.Errorf("import.csv_delimiter must be a single character, got: %s", config.Import.CSVDelimiter)
	}

	return nil
}
