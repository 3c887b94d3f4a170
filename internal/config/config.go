// Package config manages the application configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds process-level settings. User preferences (volume, skip
// amounts, autoplay) live in the store's settings table instead.
type Config struct {
	DatabasePath  string `json:"databasePath"`
	AudioCacheDir string `json:"audioCacheDir"`
	ImageCacheDir string `json:"imageCacheDir"`
	LogLevel      string `json:"logLevel"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		DatabasePath:  "rcast.db",
		AudioCacheDir: filepath.Join("cache", "audio"),
		ImageCacheDir: filepath.Join("cache", "images"),
		LogLevel:      "info",
	}
}

// Manager loads and saves the JSON configuration file.
type Manager struct {
	path   string
	config *Config
}

// NewManager returns a manager for dir/config.json.
func NewManager(dir string) *Manager {
	return &Manager{
		path:   filepath.Join(dir, "config.json"),
		config: Default(),
	}
}

// Load reads the configuration, creating the default file if absent.
func (m *Manager) Load() error {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return m.Save()
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", m.path, err)
	}
	if err := json.Unmarshal(data, m.config); err != nil {
		return fmt.Errorf("config: parse %s: %w", m.path, err)
	}

	// Environment wins over the file.
	if v := os.Getenv("RCAST_DB"); v != "" {
		m.config.DatabasePath = v
	}
	if v := os.Getenv("RCAST_LOG_LEVEL"); v != "" {
		m.config.LogLevel = v
	}
	return nil
}

// Save writes the configuration, creating its directory if needed.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", m.path, err)
	}
	return nil
}

// Config returns the loaded configuration.
func (m *Manager) Config() *Config {
	return m.config
}
