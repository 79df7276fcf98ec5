// Package config loads and validates the cratewatch configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingUsername = errors.New("matrix username is not configured")
	ErrMissingPassword = errors.New("matrix password is not configured")
	ErrMissingRoom     = errors.New("matrix room is not configured")
	ErrBadFrequency    = errors.New("update frequency must be a positive number of seconds")
)

// DefaultHomeserverURL is used when no homeserver is configured.
const DefaultHomeserverURL = "https://matrix-client.matrix.org"

// DefaultUpdateFrequency is the default poll interval in seconds.
const DefaultUpdateFrequency = 600

// Config represents the application configuration. It is assembled
// once at startup from an optional YAML file plus CLI flags and is
// immutable afterwards.
type Config struct {
	Matrix MatrixConfig `yaml:"matrix"`
	Poll   PollConfig   `yaml:"poll"`
	Seed   SeedConfig   `yaml:"seed"`
}

// MatrixConfig holds the chat transport settings.
type MatrixConfig struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	Room          string `yaml:"room"`
	HomeserverURL string `yaml:"homeserver_url"`
}

// PollConfig holds the version poll loop settings.
type PollConfig struct {
	// UpdateFrequency is the poll interval in seconds
	UpdateFrequency int `yaml:"update_frequency"`
}

// SeedConfig points at an optional TOML file of crates to watch at
// startup.
type SeedConfig struct {
	Path string `yaml:"path"`
}

// Default returns a config carrying only the built-in defaults.
func Default() *Config {
	return &Config{
		Matrix: MatrixConfig{
			HomeserverURL: DefaultHomeserverURL,
		},
		Poll: PollConfig{
			UpdateFrequency: DefaultUpdateFrequency,
		},
	}
}

// ConfigPaths returns the possible config file paths in priority order:
// 1. $XDG_CONFIG_HOME/cratewatch/config.yaml
// 2. ~/.cratewatch/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "cratewatch", "config.yaml"),
		filepath.Join(home, ".cratewatch", "config.yaml"),
	}, nil
}

// Load reads configuration from the first existing config file,
// falling back to defaults when none exists.
func Load() (*Config, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return LoadFrom(path)
		}
	}

	return Default(), nil
}

// LoadFrom reads configuration from a specific file path. Settings
// absent from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings required to start the bot are
// present.
func (c *Config) Validate() error {
	if c.Matrix.Username == "" {
		return ErrMissingUsername
	}
	if c.Matrix.Password == "" {
		return ErrMissingPassword
	}
	if c.Matrix.Room == "" {
		return ErrMissingRoom
	}
	if c.Poll.UpdateFrequency <= 0 {
		return ErrBadFrequency
	}
	return nil
}
