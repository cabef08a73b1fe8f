package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"edaworkspace/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "BASE_URL",
		"SUBSETTING_SERVICE_URL", "DATA_SERVICE_URL", "USER_SERVICE_URL", "RECORD_SERVICE_URL",
		"SERVICE_AUTH_TOKEN", "SERVICE_TIMEOUT",
		"ANALYSIS_STORE", "DATABASE_URL", "EDA_USER_ID", "RECORD_ATTRIBUTES", "LOG_LEVEL",
		"EDA_CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoreRemote, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Services.Timeout)
	assert.Equal(t, "guest", cfg.User.ID)
	assert.Contains(t, cfg.Records.Attributes, "summary")
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SERVICE_TIMEOUT", "5")
	t.Setenv("ANALYSIS_STORE", StoreSQLite)
	t.Setenv("DATABASE_URL", "file:analyses.db")
	t.Setenv("RECORD_ATTRIBUTES", "summary, country ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Services.Timeout)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, []string{"summary", "country"}, cfg.Records.Attributes)
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	path := filepath.Join(t.TempDir(), "eda.yaml")
	content := `
server:
  port: "7000"
services:
  data_url: http://data.internal:8080
  timeout: 10s
user:
  id: analyst
records:
  attributes: [summary]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("EDA_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "http://data.internal:8080", cfg.Services.DataURL)
	assert.Equal(t, 10*time.Second, cfg.Services.Timeout)
	assert.Equal(t, "analyst", cfg.User.ID)
	assert.Equal(t, []string{"summary"}, cfg.Records.Attributes)
	// untouched keys keep their environment value
	assert.Equal(t, "http://localhost:8090/subsetting", cfg.Services.SubsettingURL)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDA_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080"},
			Services: ServicesConfig{
				SubsettingURL: "http://localhost/subsetting",
				DataURL:       "http://localhost/data",
				UserURL:       "http://localhost/user",
				RecordURL:     "http://localhost/records",
				Timeout:       time.Second,
			},
			Store: StoreConfig{Driver: StoreRemote},
			User:  UserConfig{ID: "guest"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing port", func(c *Config) { c.Server.Port = "" }, false},
		{"relative data url", func(c *Config) { c.Services.DataURL = "/data" }, false},
		{"zero timeout", func(c *Config) { c.Services.Timeout = 0 }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, false},
		{"sql without dsn", func(c *Config) { c.Store.Driver = StorePostgres }, false},
		{"sql with dsn", func(c *Config) {
			c.Store.Driver = StorePostgres
			c.Store.DatabaseURL = "postgres://localhost/eda"
		}, true},
		{"remote needs user service", func(c *Config) { c.Services.UserURL = "" }, false},
		{"sql ignores user service", func(c *Config) {
			c.Store.Driver = StoreSQLite
			c.Store.DatabaseURL = ":memory:"
			c.Services.UserURL = ""
		}, true},
		{"missing user", func(c *Config) { c.User.ID = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
