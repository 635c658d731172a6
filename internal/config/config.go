// Package config loads and saves perdiem preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all perdiem preferences.
type Config struct {
	General GeneralConfig `toml:"general"`
	Editing EditingConfig `toml:"editing"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DBPath   string `toml:"db_path,omitempty"`
	LogLevel string `toml:"log_level"`
	Currency string `toml:"currency"`
}

// EditingConfig tunes the settings draft commit behavior.
type EditingConfig struct {
	QuiescenceMS  int `toml:"quiescence_ms"`
	SavingFlashMS int `toml:"saving_flash_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			LogLevel: "warn",
			Currency: "$",
		},
		Editing: EditingConfig{
			QuiescenceMS:  2000,
			SavingFlashMS: 500,
		},
	}
}

// Quiescence returns the configured edit-quiet delay.
func (c Config) Quiescence() time.Duration {
	return time.Duration(c.Editing.QuiescenceMS) * time.Millisecond
}

// SavingFlash returns the configured saving-indicator window.
func (c Config) SavingFlash() time.Duration {
	return time.Duration(c.Editing.SavingFlashMS) * time.Millisecond
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "perdiem")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "perdiem")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "perdiem")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "perdiem")
}

// DBPath returns the database path: the configured override, or the default
// location under the data directory.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "perdiem.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
