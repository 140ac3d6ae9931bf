// Package config loads runtime configuration from defaults, an optional
// config file and CASHDRAWER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Every field maps to a key that can
// be set in the config file or as CASHDRAWER_<KEY> (dots become underscores).
type Config struct {
	// Server
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Storage
	DatabasePath string `mapstructure:"db_path"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Timezone decides which calendar day a session belongs to.
	Timezone string `mapstructure:"timezone"`

	// StaleCheckInterval is how often the server looks for sessions left
	// open past their day. Zero disables the check.
	StaleCheckInterval time.Duration `mapstructure:"stale_check_interval"`

	// DemoScenarios mounts /api/scenarios, which can wipe the database.
	// Never enable it against real data.
	DemoScenarios bool `mapstructure:"demo_scenarios"`
}

const envPrefix = "CASHDRAWER"

// New returns a viper instance with defaults and environment binding applied.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("db_path", "cashdrawer.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("timezone", "Local")
	v.SetDefault("stale_check_interval", 15*time.Minute)
	v.SetDefault("demo_scenarios", false)
	return v
}

// Load reads the config file (if any) and unmarshals v into a Config.
// An empty file path searches for cashdrawer.{yaml,json,toml} in the working
// directory and does not fail when none exists.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("cashdrawer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("db_path must not be empty")
	}
	if c.StaleCheckInterval < 0 {
		return fmt.Errorf("invalid stale_check_interval %s", c.StaleCheckInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
