// Package config loads cashcanvas settings from the environment and an optional
// cashcanvas.{yaml,json,toml} file in the working directory.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	StaticDir  string `mapstructure:"STATIC_DIR"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	PlaidClientID string `mapstructure:"PLAID_CLIENT_ID"`
	PlaidSecret   string `mapstructure:"PLAID_SECRET"`
	PlaidEnv      string `mapstructure:"PLAID_ENV"`

	AuthJWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
	AuthJWTIssuer string `mapstructure:"AUTH_JWT_ISSUER"`

	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"SERVER_PORT",
	"STATIC_DIR",
	"DATABASE_DRIVER",
	"DATABASE_URL",
	"PLAID_CLIENT_ID",
	"PLAID_SECRET",
	"PLAID_ENV",
	"AUTH_JWT_SECRET",
	"AUTH_JWT_ISSUER",
	"CORS_ALLOWED_ORIGINS",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"SHUTDOWN_TIMEOUT",
}

// LoadConfig reads configuration from file or environment variables and validates it.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("cashcanvas")
	viper.AddConfigPath(".")

	viper.SetDefault("SERVER_PORT", "5050")
	viper.SetDefault("STATIC_DIR", "./build")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_URL", "./fin.db")
	viper.SetDefault("PLAID_ENV", "sandbox")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	viper.AutomaticEnv()
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PlaidClientID == "" {
		errs = append(errs, errors.New("PLAID_CLIENT_ID is required"))
	}
	if c.PlaidSecret == "" {
		errs = append(errs, errors.New("PLAID_SECRET is required"))
	}
	if c.AuthJWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	switch c.DatabaseDriver {
	case "sqlite", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported (sqlite, pgx, postgres)", c.DatabaseDriver))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.ServerPort, ":")
}

// splitOrigins accepts both list values and a single comma separated string.
func splitOrigins(raw []string) []string {
	var origins []string
	for _, value := range raw {
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}
