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
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/airwave.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultProbeTimeout              = 30 * time.Second
	defaultProbeWorkers              = 4
	defaultLibraryWatch              = false
	defaultGoLive                    = "2023-10-01T00:00:00Z"
	envPrefix                        = "AIRWAVE"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Library   LibraryConfig
	Broadcast BroadcastConfig
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
	EnableWAL         bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// LibraryConfig holds video library configuration.
// The library root contains one subfolder per channel.
type LibraryConfig struct {
	Path             string
	SupportedFormats []string
	ProbeTimeout     time.Duration
	ProbeWorkers     int
	Watch            bool
}

// BroadcastConfig holds the simulated broadcast settings.
// GoLive is the fixed epoch all channel positions are measured from; it is
// read-only configuration and never changes at runtime.
type BroadcastConfig struct {
	GoLive            string
	UseStreamDuration bool
}

// Epoch returns the parsed go-live timestamp. Validate must have been called.
func (b *BroadcastConfig) Epoch() time.Time {
	t, _ := time.Parse(time.RFC3339, b.GoLive)
	return t.UTC()
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/airwave")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file is optional, defaults and env vars cover everything
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
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

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("library.supportedformats", []string{"mp4", "mkv", "mov", "avi", "webm", "m4v"})
	v.SetDefault("library.probetimeout", defaultProbeTimeout)
	v.SetDefault("library.probeworkers", defaultProbeWorkers)
	v.SetDefault("library.watch", defaultLibraryWatch)

	v.SetDefault("broadcast.golive", defaultGoLive)
	v.SetDefault("broadcast.usestreamduration", false)
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

	if c.Library.ProbeTimeout <= 0 {
		return fmt.Errorf("invalid probe timeout: %v (must be > 0)", c.Library.ProbeTimeout)
	}
	if c.Library.ProbeWorkers < 1 {
		return fmt.Errorf("invalid probe workers: %d (must be >= 1)", c.Library.ProbeWorkers)
	}

	if _, err := time.Parse(time.RFC3339, c.Broadcast.GoLive); err != nil {
		return fmt.Errorf("invalid go-live timestamp %q: %w", c.Broadcast.GoLive, err)
	}

	// Library path is optional at startup; scans validate it when they run

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
