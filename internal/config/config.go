// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Platform() PlatformConfig
	Post() PostConfig
	Credentials() CredentialsConfig

	SetBrowserHeadless(bool)
	SetCredentialsPath(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	PlatformCfg    PlatformConfig    `mapstructure:"platform" yaml:"platform"`
	PostCfg        PostConfig        `mapstructure:"post" yaml:"post"`
	CredentialsCfg CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
}

var _ Interface = (*Config)(nil)

// --- Getters ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Platform() PlatformConfig       { return c.PlatformCfg }
func (c *Config) Post() PostConfig               { return c.PostCfg }
func (c *Config) Credentials() CredentialsConfig { return c.CredentialsCfg }

// --- Setters ---

func (c *Config) SetBrowserHeadless(b bool)   { c.BrowserCfg.Headless = b }
func (c *Config) SetCredentialsPath(p string) { c.CredentialsCfg.Path = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome process that backs a client.
type BrowserConfig struct {
	// Headless is off by default: the platform is friendlier to a real window.
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args     []string `mapstructure:"args" yaml:"args"`
	// MaxTabs bounds the number of operation tabs open at once.
	MaxTabs int `mapstructure:"max_tabs" yaml:"max_tabs"`
	// OperationsPerSecond paces post operations. Zero means unlimited.
	OperationsPerSecond float64       `mapstructure:"operations_per_second" yaml:"operations_per_second"`
	LaunchTimeout       time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Debug               bool          `mapstructure:"debug" yaml:"debug"`
}

// PlatformConfig points the client at the publishing platform.
type PlatformConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// PostConfig tunes the post operations.
type PostConfig struct {
	// CreateTimeout bounds the wait for the editor to land on the edit URL. Zero waits forever.
	CreateTimeout time.Duration `mapstructure:"create_timeout" yaml:"create_timeout"`
	// SaveSettle is how long update keeps the tab open after the save shortcut.
	SaveSettle time.Duration `mapstructure:"save_settle" yaml:"save_settle"`
}

// CredentialsConfig selects where captured session cookies are cached.
type CredentialsConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Path        string `mapstructure:"path" yaml:"path"`
	Profile     string `mapstructure:"profile" yaml:"profile"`
	DatabaseURL string `mapstructure:"database_url" yaml:"-"`
}

// Supported credential backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "mediumctl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.max_tabs", 4)
	v.SetDefault("browser.operations_per_second", 0)
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.debug", false)

	// -- Platform --
	v.SetDefault("platform.base_url", "https://medium.com")

	// -- Post --
	v.SetDefault("post.create_timeout", "0s")
	v.SetDefault("post.save_settle", "1s")

	// -- Credentials --
	v.SetDefault("credentials.backend", BackendFile)
	v.SetDefault("credentials.path", "cookies.json")
	v.SetDefault("credentials.profile", "default")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Sensitive values come from the environment only.
	if err := v.BindEnv("credentials.database_url", "MEDIUMCTL_DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("error binding database url env: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.MaxTabs <= 0 {
		return fmt.Errorf("browser.max_tabs must be a positive integer")
	}
	if c.BrowserCfg.OperationsPerSecond < 0 {
		return fmt.Errorf("browser.operations_per_second must not be negative")
	}
	if c.PostCfg.CreateTimeout < 0 || c.PostCfg.SaveSettle < 0 {
		return fmt.Errorf("post timeouts must not be negative")
	}
	if !strings.HasPrefix(c.PlatformCfg.BaseURL, "http://") && !strings.HasPrefix(c.PlatformCfg.BaseURL, "https://") {
		return fmt.Errorf("platform.base_url must be an absolute http(s) URL, got %q", c.PlatformCfg.BaseURL)
	}
	if err := c.CredentialsCfg.Validate(); err != nil {
		return fmt.Errorf("credentials configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the credentials backend selection.
func (c *CredentialsConfig) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Path == "" {
			return fmt.Errorf("credentials.path is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url is required for the postgres backend. Ensure MEDIUMCTL_DATABASE_URL is set")
		}
		if c.Profile == "" {
			return fmt.Errorf("credentials.profile is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown credentials backend %q", c.Backend)
	}
	return nil
}
