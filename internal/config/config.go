// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Identity store backends.
const (
	IdentityStoreBolt     = "bolt"
	IdentityStorePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	GithubToken        string        `mapstructure:"GITHUB_TOKEN"`
	GithubBaseURL      string        `mapstructure:"GITHUB_BASE_URL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitMaxWait   time.Duration `mapstructure:"RATE_LIMIT_MAX_WAIT"`
	SuggestionDebounce time.Duration `mapstructure:"SUGGESTION_DEBOUNCE"`
	DefaultUsername    string        `mapstructure:"DEFAULT_USERNAME"`
	IdentityStore      string        `mapstructure:"IDENTITY_STORE"`
	BoltPath           string        `mapstructure:"BOLT_PATH"`
	DBURL              string        `mapstructure:"DB_URL"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("GITHUB_TOKEN", "")
	viper.SetDefault("GITHUB_BASE_URL", "")
	viper.SetDefault("REQUEST_TIMEOUT", "15s")
	viper.SetDefault("RATE_LIMIT_MAX_WAIT", "10s")
	viper.SetDefault("SUGGESTION_DEBOUNCE", "300ms")
	viper.SetDefault("DEFAULT_USERNAME", "octocat")
	viper.SetDefault("IDENTITY_STORE", IdentityStoreBolt)
	viper.SetDefault("BOLT_PATH", "profile.db")
	viper.SetDefault("DB_URL", "")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.IdentityStore = strings.ToLower(strings.TrimSpace(cfg.IdentityStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that have no usable zero value.
func (c *Config) Validate() error {
	switch c.IdentityStore {
	case IdentityStoreBolt:
		if c.BoltPath == "" {
			return errors.New("BOLT_PATH is required when IDENTITY_STORE is bolt")
		}
	case IdentityStorePostgres:
		if c.DBURL == "" {
			return errors.New("DB_URL is required when IDENTITY_STORE is postgres")
		}
	default:
		return errors.New("IDENTITY_STORE must be either bolt or postgres")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.SuggestionDebounce < 0 {
		return errors.New("SUGGESTION_DEBOUNCE must not be negative")
	}
	if c.RateLimitMaxWait < 0 {
		return errors.New("RATE_LIMIT_MAX_WAIT must not be negative")
	}
	return nil
}
