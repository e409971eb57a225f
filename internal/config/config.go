// Package config loads the server settings.
//
// SOURCES, lowest priority first:
//  1. defaults set in Load
//  2. app.yaml in the working directory, if present
//  3. .env in the working directory, if present (copied into the process
//     environment by godotenv; variables already set are not overridden)
//  4. environment variables
//
// Keys are the upper-case environment names: PORT, DB_PATH, JWT_SECRET, ...
// In app.yaml the same keys are written in lower case.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"
	// Embedded zone database, so TIMEZONE works in minimal containers.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthModeLocal  = "local"
	AuthModeRemote = "remote"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port     int
	Env      string
	LogLevel string
	DBPath   string

	// AuthMode picks the bearer token verifier: "local" checks HS256 tokens
	// signed with JWTSecret, "remote" asks the identity provider's userinfo
	// endpoint.
	AuthMode        string
	JWTSecret       string
	JWTIssuer       string
	AuthUserinfoURL string

	// Timezone decides which calendar day "today" is for check-ins, scores
	// and metrics.
	Timezone        string
	ShutdownTimeout time.Duration
}

// Load reads the configuration from the working directory and the
// environment.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for app.yaml and .env.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "data/vines.db")
	v.SetDefault("auth_mode", AuthModeLocal)
	v.SetDefault("jwt_issuer", "vines")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("auth_userinfo_url", "")

	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading app.yaml: %w", err)
		}
	}

	// AutomaticEnv upper-cases the key, so "db_path" is read from DB_PATH.
	v.AutomaticEnv()

	cfg := &Config{
		Port:            v.GetInt("port"),
		Env:             strings.ToLower(v.GetString("app_env")),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		DBPath:          v.GetString("db_path"),
		AuthMode:        strings.ToLower(v.GetString("auth_mode")),
		JWTSecret:       v.GetString("jwt_secret"),
		JWTIssuer:       v.GetString("jwt_issuer"),
		AuthUserinfoURL: v.GetString("auth_userinfo_url"),
		Timezone:        v.GetString("timezone"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	switch c.AuthMode {
	case AuthModeLocal:
		if len(c.JWTSecret) < 16 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters when AUTH_MODE=local"))
		}
	case AuthModeRemote:
		if c.AuthUserinfoURL == "" {
			errs = append(errs, errors.New("AUTH_USERINFO_URL is required when AUTH_MODE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeLocal, AuthModeRemote, c.AuthMode))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
