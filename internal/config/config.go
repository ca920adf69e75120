// Package config provides YAML-based configuration loading for Bugyard.
//
// Values come from the YAML file (optional), then environment variables
// (BUGYARD_SERVER_PORT, BUGYARD_DATABASE_DRIVER, ... and plain PORT),
// then defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BUGYARD"

// Config is the top-level Bugyard configuration, loaded from bugyard.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	BasePath        string        `yaml:"base_path"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects and addresses the backing store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file, or ":memory:"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// NotifyConfig configures chat notifications for bug events.
type NotifyConfig struct {
	MinPriority string        `yaml:"min_priority"`
	Slack       ChannelConfig `yaml:"slack"`
	Discord     ChannelConfig `yaml:"discord"`
}

// ChannelConfig is a bot token plus the channel to post to.
type ChannelConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// Enabled reports whether the channel has credentials.
func (c ChannelConfig) Enabled() bool { return c.Token != "" }

// Load reads the YAML config at path (a missing file is allowed), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg.finish()
}

// Parse unmarshals YAML bytes into a validated Config. The environment is
// not consulted.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	return cfg.finish()
}

func decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finish() (*Config, error) {
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyEnv overlays environment variables onto values read from the file.
func (c *Config) applyEnv() {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	num("server.port", &c.Server.Port)
	str("server.base_path", &c.Server.BasePath)
	if v.IsSet("server.cors_origins") {
		c.Server.CORSOrigins = strings.Split(v.GetString("server.cors_origins"), ",")
	}
	if v.IsSet("server.shutdown_timeout") {
		c.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	}
	str("database.driver", &c.Database.Driver)
	str("database.path", &c.Database.Path)
	str("database.host", &c.Database.Host)
	num("database.port", &c.Database.Port)
	str("database.user", &c.Database.User)
	str("database.password", &c.Database.Password)
	str("database.name", &c.Database.Name)
	str("log.level", &c.Log.Level)
	str("log.format", &c.Log.Format)
	str("notify.min_priority", &c.Notify.MinPriority)
	str("notify.slack.token", &c.Notify.Slack.Token)
	str("notify.slack.channel", &c.Notify.Slack.Channel)
	str("notify.discord.token", &c.Notify.Discord.Token)
	str("notify.discord.channel", &c.Notify.Discord.Channel)
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api/bugs"
	}
	c.Server.BasePath = "/" + strings.Trim(c.Server.BasePath, "/")
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "bugyard.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "bugyard"
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Notify.MinPriority == "" {
		c.Notify.MinPriority = "high"
	}
}

// validate checks that all values are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite":
	case "mysql":
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port %d out of range", c.Database.Port))
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("log.format %q must be json or console", c.Log.Format))
	}
	if !slices.Contains([]string{"low", "medium", "high", "critical"}, c.Notify.MinPriority) {
		errs = append(errs, fmt.Sprintf("notify.min_priority %q must be low, medium, high or critical", c.Notify.MinPriority))
	}
	if c.Notify.Slack.Enabled() && c.Notify.Slack.Channel == "" {
		errs = append(errs, "notify.slack.channel is required when a token is set")
	}
	if c.Notify.Discord.Enabled() && c.Notify.Discord.Channel == "" {
		errs = append(errs, "notify.discord.channel is required when a token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
