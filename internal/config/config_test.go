package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "./data/telecast.db", cfg.Database.Path)
	assert.Equal(t, "file://./migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, 5*time.Second, cfg.Playout.Slack)
	assert.Equal(t, 30*time.Minute, cfg.Playout.FillerCooldown)
	assert.Equal(t, 10*time.Minute, cfg.Playout.OfflineCap)
	assert.Equal(t, 7*24*time.Hour, cfg.Playout.NewViewerGrace)
	assert.Equal(t, 30*time.Second, cfg.Playout.StartupSnapThreshold)
	assert.Equal(t, 15*time.Second, cfg.Playout.FillerStartMargin)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("TELECAST_SERVER_PORT", "9090")
	t.Setenv("TELECAST_PLAYOUT_SLACK", "8s")
	t.Setenv("TELECAST_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8*time.Second, cfg.Playout.Slack)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:              "./data/test.db",
			ConnectionTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		Playout: PlayoutConfig{
			Slack:          5 * time.Second,
			FillerCooldown: 30 * time.Minute,
			OfflineCap:     10 * time.Minute,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_SlackOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Playout.Slack = 100 * time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg.Playout.Slack = time.Minute
	assert.Error(t, cfg.Validate())
}

func TestValidate_NonPositiveCooldown(t *testing.T) {
	cfg := validConfig()
	cfg.Playout.FillerCooldown = 0
	assert.Error(t, cfg.Validate())
}
