package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application bootstrap configuration. The mutable
// lists/slots/settings blob is not part of this: it lives in the store.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	MDBList  MDBListConfig  `mapstructure:"mdblist"`
	Trakt    TraktConfig    `mapstructure:"trakt"`
	Probe    ProbeConfig    `mapstructure:"probe"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig holds configuration-store backend settings
type DatabaseConfig struct {
	// Backend selects the store backend: "sqlite" or "postgres"
	Backend string `mapstructure:"backend"`

	// Path is the sqlite database file location
	Path string `mapstructure:"path"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Legacy field (deprecated but supported)
	Level string `mapstructure:"level"`

	App   LogLevelConfig `mapstructure:"app"`
	Store LogLevelConfig `mapstructure:"store"`
}

// LogLevelConfig represents log level configuration for a specific component
type LogLevelConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// MDBListConfig holds MDBList provider credentials
type MDBListConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// TraktConfig holds Trakt provider credentials
type TraktConfig struct {
	ClientID string `mapstructure:"client_id"`
}

// ProbeConfig holds list-validation probe settings
type ProbeConfig struct {
	// Limit clamps the trial fetch issued when a list is added or edited
	Limit int `mapstructure:"limit"`
}

var cfg *Config

// bindEnvWithAlternatives binds a viper key to environment variables with
// alternative names, so both SHUFFLARR_DATABASE_HOST and DB_HOST work
func bindEnvWithAlternatives(key string, alternatives ...string) {
	viper.BindEnv(key)
	for _, alt := range alternatives {
		if value := os.Getenv(alt); value != "" {
			viper.Set(key, value)
			break
		}
	}
}

// Load reads configuration from file and environment variables
func Load() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/shufflarr")

	setDefaults()

	viper.SetEnvPrefix("SHUFFLARR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvWithAlternatives("server.port", "PORT")

	bindEnvWithAlternatives("database.backend", "DB_BACKEND")
	bindEnvWithAlternatives("database.path", "DB_PATH")
	bindEnvWithAlternatives("database.host", "DB_HOST")
	bindEnvWithAlternatives("database.port", "DB_PORT")
	bindEnvWithAlternatives("database.user", "DB_USER")
	bindEnvWithAlternatives("database.password", "DB_PASSWORD")
	bindEnvWithAlternatives("database.dbname", "DB_NAME")
	bindEnvWithAlternatives("database.sslmode", "DB_SSLMODE")

	bindEnvWithAlternatives("logging.level", "LOG_LEVEL")
	viper.BindEnv("logging.app.level")
	viper.BindEnv("logging.store.level")

	bindEnvWithAlternatives("mdblist.api_key", "MDBLIST_API_KEY")
	bindEnvWithAlternatives("trakt.client_id", "TRAKT_CLIENT_ID")

	viper.BindEnv("probe.limit")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		return &Config{}
	}
	return cfg
}

// Reload reloads the configuration from file
func Reload() error {
	return Load()
}

func setDefaults() {
	viper.SetDefault("server.port", 7000)

	viper.SetDefault("database.backend", "sqlite")
	viper.SetDefault("database.path", "./data/shufflarr.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("logging.level", "info")

	viper.SetDefault("probe.limit", 5)
}

func validate() error {
	switch cfg.Database.Backend {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case "postgres":
		if cfg.Database.User == "" {
			return fmt.Errorf("database.user is required for the postgres backend")
		}
		if cfg.Database.DBName == "" {
			return fmt.Errorf("database.dbname is required for the postgres backend")
		}
	default:
		return fmt.Errorf("database.backend must be one of: sqlite, postgres")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

	if cfg.Logging.Level != "" && !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.App.Level != "" && !validLevels[cfg.Logging.App.Level] {
		return fmt.Errorf("logging.app.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Store.Level != "" && !validLevels[cfg.Logging.Store.Level] {
		return fmt.Errorf("logging.store.level must be one of: debug, info, warn, error")
	}

	if cfg.Probe.Limit <= 0 {
		return fmt.Errorf("probe.limit must be positive")
	}

	return nil
}

// GetAppLogLevel returns the log level for application logging
// Priority: logging.app.level → logging.level → "info"
func (c *Config) GetAppLogLevel() string {
	if c.Logging.App.Level != "" {
		return c.Logging.App.Level
	}
	if c.Logging.Level != "" {
		return c.Logging.Level
	}
	return "info"
}

// GetStoreLogLevel returns the log level for configuration-store logging
// Priority: logging.store.level → logging.level → "info"
func (c *Config) GetStoreLogLevel() string {
	if c.Logging.Store.Level != "" {
		return c.Logging.Store.Level
	}
	if c.Logging.Level != "" {
		return c.Logging.Level
	}
	return "info"
}
