// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "mediumctl", cfg.Logger().ServiceName)
	assert.False(t, cfg.Browser().Headless, "the platform is driven through a visible window by default")
	assert.Equal(t, 4, cfg.Browser().MaxTabs)
	assert.Equal(t, 60*time.Second, cfg.Browser().LaunchTimeout)
	assert.Equal(t, "https://medium.com", cfg.Platform().BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Post().CreateTimeout)
	assert.Equal(t, time.Second, cfg.Post().SaveSettle)
	assert.Equal(t, BackendFile, cfg.Credentials().Backend)
	assert.Equal(t, "cookies.json", cfg.Credentials().Path)

	require.NoError(t, cfg.Validate(), "defaults must always validate")
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetBrowserHeadless(true)
	cfg.SetCredentialsPath("/tmp/other.json")

	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, "/tmp/other.json", cfg.Credentials().Path)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		invalidTabs := *cfg
		invalidTabs.BrowserCfg.MaxTabs = 0
		err := invalidTabs.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.max_tabs must be a positive integer")

		invalidRate := *cfg
		invalidRate.BrowserCfg.OperationsPerSecond = -1
		err = invalidRate.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.operations_per_second must not be negative")

		invalidSettle := *cfg
		invalidSettle.PostCfg.SaveSettle = -time.Second
		err = invalidSettle.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "post timeouts must not be negative")

		invalidBase := *cfg
		invalidBase.PlatformCfg.BaseURL = "medium.com"
		err = invalidBase.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "platform.base_url must be an absolute http(s) URL")
	})

	t.Run("Credentials Validation", func(t *testing.T) {
		valid := CredentialsConfig{Backend: BackendFile, Path: "cookies.json"}
		assert.NoError(t, valid.Validate())

		missingPath := valid
		missingPath.Path = ""
		err := missingPath.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials.path is required")

		pg := CredentialsConfig{Backend: BackendPostgres, Profile: "default"}
		err = pg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MEDIUMCTL_DATABASE_URL")

		pg.DatabaseURL = "postgres://localhost/mediumctl"
		assert.NoError(t, pg.Validate())

		pg.Profile = ""
		assert.Error(t, pg.Validate())

		unknown := CredentialsConfig{Backend: "redis"}
		err = unknown.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown credentials backend "redis"`)
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
browser:
  headless: true
  max_tabs: 2
  operations_per_second: 0.5
post:
  create_timeout: 45s
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.True(t, cfg.Browser().Headless)
		assert.Equal(t, 2, cfg.Browser().MaxTabs)
		assert.InDelta(t, 0.5, cfg.Browser().OperationsPerSecond, 1e-9)
		assert.Equal(t, 45*time.Second, cfg.Post().CreateTimeout)
		// Defaults survive alongside the file values.
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("browser.max_tabs", 0)

		cfg, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "browser.max_tabs must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("credentials.backend", BackendPostgres)

		yamlConfig := []byte(`
credentials:
  database_url: "postgres://configfile/db"
`)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		testDBURL := "postgres://envvar/db"
		t.Setenv("MEDIUMCTL_DATABASE_URL", testDBURL)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, testDBURL, cfg.Credentials().DatabaseURL, "env must override the config file")
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/mediumctl.log
browser:
  args: ["--lang=en-US"]
  launch_timeout: 5s
platform:
  base_url: http://127.0.0.1:8080
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "/var/log/mediumctl.log", cfg.Logger().LogFile)
	assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser().Args)
	assert.Equal(t, 5*time.Second, cfg.Browser().LaunchTimeout)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Platform().BaseURL)
}
