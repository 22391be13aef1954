// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort            = 8080
	defaultServerHost            = "0.0.0.0"
	defaultReadTimeout           = 30 * time.Second
	defaultWriteTimeout          = 30 * time.Second
	defaultDatabasePath          = "./data/telecast.db"
	defaultDatabaseTimeout       = 5 * time.Second
	defaultLogLevel              = "info"
	defaultSlack                 = 5 * time.Second
	defaultFillerCooldown        = 30 * time.Minute
	defaultOfflineCap            = 10 * time.Minute
	defaultNewViewerGrace        = 7 * 24 * time.Hour
	defaultStartupSnapThreshold  = 30 * time.Second
	defaultFillerStartLeadMargin = 15 * time.Second
	envPrefix                    = "TELECAST"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Playout  PlayoutConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// PlayoutConfig holds the tuning constants for the playout engine.
// Slack is the tolerance applied when deciding whether the tail end of an
// item is worth starting a pipeline for; the remaining values bound filler
// selection and gap display.
type PlayoutConfig struct {
	Slack                time.Duration
	FillerCooldown       time.Duration // default per-clip cooldown when a channel has none
	OfflineCap           time.Duration // longest gap ever shown to a viewer
	NewViewerGrace       time.Duration // widened filler search window on first resolution
	StartupSnapThreshold time.Duration // offsets below this restart the item from zero
	FillerStartMargin    time.Duration // keep at least this much filler ahead of a random start
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional; production and CI set env vars directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/telecast")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// No config file is fine, defaults and env vars carry it
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseTimeout)
	v.SetDefault("database.migrationspath", "file://./migrations")

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", false)

	v.SetDefault("playout.slack", defaultSlack)
	v.SetDefault("playout.fillercooldown", defaultFillerCooldown)
	v.SetDefault("playout.offlinecap", defaultOfflineCap)
	v.SetDefault("playout.newviewergrace", defaultNewViewerGrace)
	v.SetDefault("playout.startupsnapthreshold", defaultStartupSnapThreshold)
	v.SetDefault("playout.fillerstartmargin", defaultFillerStartLeadMargin)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Playout.Slack < time.Second || c.Playout.Slack > 30*time.Second {
		return fmt.Errorf("invalid playout slack: %v (must be between 1s and 30s)", c.Playout.Slack)
	}
	if c.Playout.FillerCooldown <= 0 {
		return fmt.Errorf("invalid filler cooldown: %v (must be > 0)", c.Playout.FillerCooldown)
	}
	if c.Playout.OfflineCap <= 0 {
		return fmt.Errorf("invalid offline cap: %v (must be > 0)", c.Playout.OfflineCap)
	}
	if c.Playout.StartupSnapThreshold < 0 {
		return fmt.Errorf("invalid startup snap threshold: %v (must be >= 0)", c.Playout.StartupSnapThreshold)
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
