// Package common provides shared utilities for Advisor
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Advisor
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Auth        AuthConfig    `toml:"auth"`
	Mailer      MailerConfig  `toml:"mailer"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the BadgerHold data directory.
type StorageConfig struct {
	Path string `toml:"path"`
}

// AuthConfig holds signing secrets, token lifetimes, and the admin credential pair.
// Access and refresh tokens are signed with distinct secrets so that a leaked
// access secret cannot be used to forge long-lived refresh tokens.
type AuthConfig struct {
	AccessSecret       string `toml:"access_secret"`
	RefreshSecret      string `toml:"refresh_secret"`
	AccessTokenExpiry  string `toml:"access_token_expiry"`  // duration string, default "30m"
	RefreshTokenExpiry string `toml:"refresh_token_expiry"` // duration string, default "168h"
	AdminEmail         string `toml:"admin_email"`
	AdminPassword      string `toml:"admin_password"`
}

// GetAccessTokenExpiry parses and returns the access token lifetime.
func (c *AuthConfig) GetAccessTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenExpiry)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// GetRefreshTokenExpiry parses and returns the refresh token lifetime.
func (c *AuthConfig) GetRefreshTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenExpiry)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// MailerConfig holds outbound mail configuration.
type MailerConfig struct {
	From    string `toml:"from"`
	BaseURL string `toml:"base_url"` // link prefix used in verification/reset emails
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/advisor",
		},
		Auth: AuthConfig{
			AccessSecret:       "dev-access-secret-change-in-production",
			RefreshSecret:      "dev-refresh-secret-change-in-production",
			AccessTokenExpiry:  "30m",
			RefreshTokenExpiry: "168h",
			AdminEmail:         "admin@advisor.local",
			AdminPassword:      "admin",
		},
		Mailer: MailerConfig{
			From:    "no-reply@advisor.local",
			BaseURL: "http://localhost:8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADVISOR_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ADVISOR_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ADVISOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ADVISOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ADVISOR_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	// Auth overrides
	if v := os.Getenv("ADVISOR_AUTH_ACCESS_SECRET"); v != "" {
		config.Auth.AccessSecret = v
	}
	if v := os.Getenv("ADVISOR_AUTH_REFRESH_SECRET"); v != "" {
		config.Auth.RefreshSecret = v
	}
	if v := os.Getenv("ADVISOR_AUTH_ACCESS_TOKEN_EXPIRY"); v != "" {
		config.Auth.AccessTokenExpiry = v
	}
	if v := os.Getenv("ADVISOR_AUTH_REFRESH_TOKEN_EXPIRY"); v != "" {
		config.Auth.RefreshTokenExpiry = v
	}
	if v := os.Getenv("ADVISOR_AUTH_ADMIN_EMAIL"); v != "" {
		config.Auth.AdminEmail = v
	}
	if v := os.Getenv("ADVISOR_AUTH_ADMIN_PASSWORD"); v != "" {
		config.Auth.AdminPassword = v
	}

	if v := os.Getenv("ADVISOR_MAILER_FROM"); v != "" {
		config.Mailer.From = v
	}
	if v := os.Getenv("ADVISOR_MAILER_BASE_URL"); v != "" {
		config.Mailer.BaseURL = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
