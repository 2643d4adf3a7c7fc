// Package xdg resolves the per-user directories wingman writes to,
// following the XDG Base Directory conventions. Configuration and the
// run ledger live under separate trees so wiping run history never
// touches settings.
package xdg

import (
	"os"
	"path/filepath"
)

const app = "wingman"

// ConfigDir returns the directory holding wingman's configuration
// file. XDG_CONFIG_HOME takes precedence; otherwise ~/.config is used.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the directory holding wingman's run ledger.
// XDG_STATE_HOME takes precedence; otherwise ~/.local/state is used.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ensure resolves the base directory from env or the home-relative
// fallback, appends the app directory, and creates it private since
// both trees can hold org identifiers.
func ensure(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
