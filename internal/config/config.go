// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; org credentials live with the sf CLI.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"wingman/cli/internal/xdg"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel   string `json:"log_level"`
	DefaultOrg string `json:"default_org"`
	BatchSize  int    `json:"batch_size"`
	Workers    int    `json:"workers"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	var c Config
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.BatchSize <= 0 {
		c.BatchSize = Defaults().BatchSize
	}
	if c.Workers <= 0 {
		c.Workers = Defaults().Workers
	}
	return c, nil
}

// Defaults returns the configuration used when no config file exists.
// The default org comes from env/flags at run time, never from here.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		BatchSize: 100,
		Workers:   4,
	}
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
