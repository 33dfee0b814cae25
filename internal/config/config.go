// Package config loads server configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "24h" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all server settings.
type Config struct {
	ListenAddr string   `yaml:"listen_addr"`
	DataDir    string   `yaml:"data_dir"`
	MediaDir   string   `yaml:"media_dir"`
	AdminEmail string   `yaml:"admin_email"`
	LogLevel   string   `yaml:"log_level"`
	SessionTTL Duration `yaml:"session_ttl"`
	ResetTTL   Duration `yaml:"reset_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: ":8090",
		DataDir:    "./data",
		MediaDir:   "./data/media",
		AdminEmail: "shahriarsany57@gmail.com",
		LogLevel:   "INFO",
		SessionTTL: Duration(24 * time.Hour),
		ResetTTL:   Duration(15 * time.Minute),
	}
}

// Load reads the config file at path, if present, and applies environment
// overrides on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from PORTFOLIO_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORTFOLIO_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PORTFOLIO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PORTFOLIO_MEDIA_DIR"); v != "" {
		cfg.MediaDir = v
	}
	if v := os.Getenv("PORTFOLIO_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("PORTFOLIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PORTFOLIO_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = Duration(d)
		}
	}
}

// Validate checks the settings a server cannot start without.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.AdminEmail == "" {
		return fmt.Errorf("admin_email must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.ResetTTL <= 0 {
		return fmt.Errorf("reset_ttl must be positive")
	}
	return nil
}
