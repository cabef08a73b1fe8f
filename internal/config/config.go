package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"edaworkspace/internal/errors"

	"gopkg.in/yaml.v3"
)

// Store drivers for analysis persistence
const (
	StoreRemote   = "remote"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Services ServicesConfig `yaml:"services"`
	Store    StoreConfig    `yaml:"store"`
	User     UserConfig     `yaml:"user"`
	Records  RecordsConfig  `yaml:"records"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	BaseURL string `yaml:"base_url"`
}

// ServicesConfig holds the base URLs of the backend services
type ServicesConfig struct {
	SubsettingURL string        `yaml:"subsetting_url"`
	DataURL       string        `yaml:"data_url"`
	UserURL       string        `yaml:"user_url"`
	RecordURL     string        `yaml:"record_url"`
	AuthToken     string        `yaml:"auth_token"`
	Timeout       time.Duration `yaml:"timeout"`
}

// StoreConfig selects where analyses are persisted
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
}

// UserConfig identifies the user analyses belong to
type UserConfig struct {
	ID string `yaml:"id"`
}

// RecordsConfig lists the study record attributes the workspace displays
type RecordsConfig struct {
	Attributes []string `yaml:"attributes"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from environment variables, overlays EDA_CONFIG_FILE when set,
// and validates the result
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Services: *loadServicesConfig(),
		Store:    *loadStoreConfig(),
		User:     UserConfig{ID: getEnvOrDefault("EDA_USER_ID", "guest")},
		Records:  RecordsConfig{Attributes: getEnvListOrDefault("RECORD_ATTRIBUTES", []string{"summary", "project_id", "study_design", "country"})},
		Logging:  LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if path := os.Getenv("EDA_CONFIG_FILE"); path != "" {
		if err := config.overlayFile(path); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// overlayFile merges non-empty values from a YAML file over the environment configuration
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	overlayString(&c.Server.Port, loaded.Server.Port)
	overlayString(&c.Server.GinMode, loaded.Server.GinMode)
	overlayString(&c.Server.BaseURL, loaded.Server.BaseURL)
	overlayString(&c.Services.SubsettingURL, loaded.Services.SubsettingURL)
	overlayString(&c.Services.DataURL, loaded.Services.DataURL)
	overlayString(&c.Services.UserURL, loaded.Services.UserURL)
	overlayString(&c.Services.RecordURL, loaded.Services.RecordURL)
	overlayString(&c.Services.AuthToken, loaded.Services.AuthToken)
	if loaded.Services.Timeout > 0 {
		c.Services.Timeout = loaded.Services.Timeout
	}
	overlayString(&c.Store.Driver, loaded.Store.Driver)
	overlayString(&c.Store.DatabaseURL, loaded.Store.DatabaseURL)
	overlayString(&c.User.ID, loaded.User.ID)
	if len(loaded.Records.Attributes) > 0 {
		c.Records.Attributes = loaded.Records.Attributes
	}
	overlayString(&c.Logging.Level, loaded.Logging.Level)
	return nil
}

// Validate checks required fields and cross-field constraints
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	for name, raw := range map[string]string{
		"SUBSETTING_SERVICE_URL": c.Services.SubsettingURL,
		"DATA_SERVICE_URL":       c.Services.DataURL,
		"RECORD_SERVICE_URL":     c.Services.RecordURL,
	} {
		if err := validateURL(name, raw); err != nil {
			return err
		}
	}
	if c.Services.Timeout <= 0 {
		return errors.ConfigInvalid("service timeout must be positive")
	}

	switch c.Store.Driver {
	case StoreRemote:
		if err := validateURL("USER_SERVICE_URL", c.Services.UserURL); err != nil {
			return err
		}
	case StorePostgres, StoreSQLite:
		if c.Store.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the " + c.Store.Driver + " analysis store")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown analysis store driver %q", c.Store.Driver))
	}

	if c.User.ID == "" {
		return errors.ConfigInvalid("user ID is required")
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return errors.ConfigInvalid(name + " is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigInvalid(name + " must be an absolute URL")
	}
	return nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
		BaseURL: getEnvOrDefault("BASE_URL", ""),
	}
}

func loadServicesConfig() *ServicesConfig {
	return &ServicesConfig{
		SubsettingURL: getEnvOrDefault("SUBSETTING_SERVICE_URL", "http://localhost:8090/subsetting"),
		DataURL:       getEnvOrDefault("DATA_SERVICE_URL", "http://localhost:8090/data"),
		UserURL:       getEnvOrDefault("USER_SERVICE_URL", "http://localhost:8090/user"),
		RecordURL:     getEnvOrDefault("RECORD_SERVICE_URL", "http://localhost:8090/host"),
		AuthToken:     getEnvOrDefault("SERVICE_AUTH_TOKEN", ""),
		Timeout:       getEnvDurationOrDefault("SERVICE_TIMEOUT", 30*time.Second),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver:      getEnvOrDefault("ANALYSIS_STORE", StoreRemote),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func overlayString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
