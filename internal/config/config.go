// Package config loads the adapter configuration: a TOML file overlaid
// with environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config holds the adapter settings.
type Config struct {
	Session        string        `toml:"session" env:"PUPPET_WHATSAPP_SESSION"`
	Proxy          string        `toml:"proxy" env:"WHATSAPP_PUPPET_PROXY"`
	CommandTimeout time.Duration `toml:"command_timeout" env:"PUPPET_WHATSAPP_COMMAND_TIMEOUT"`
	Archive        bool          `toml:"archive" env:"PUPPET_WHATSAPP_ARCHIVE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Session:        "main",
		CommandTimeout: 15 * time.Second,
	}
}

// Load reads config from path (missing file is fine) and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
